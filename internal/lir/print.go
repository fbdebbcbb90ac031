package lir

import (
	"fmt"
	"sort"
	"strings"
)

// Printer renders a Module as LIR text, a read-only consumer of the
// procedure's own arenas (spec §6 "MIR and LIR textual dumps").
//
// Grounded on `hhramberg-go-vslc/src/ir/lir/print.go`'s block-label and
// instruction-list rendering style; the Explain mode is supplemented
// from the same original_source/zetah11-zippy debugging pass mir.Printer
// borrows, here annotating each block with the live-in/live-out register
// sets internal/liveness.Approximate already computes for C8 (spec §3
// "Liveness facts").
type Printer struct {
	// Explain, when set, annotates every block with its live-in and
	// live-out register sets via LiveIn/LiveOut. A nil LiveIn (or
	// LiveOut) map prints no live-in (or live-out) annotation at all; a
	// block missing from a non-nil map is annotated with {}.
	Explain bool
	LiveIn  map[BlockId]map[Register]bool
	LiveOut map[BlockId]map[Register]bool
}

// NewPrinter creates a plain Printer with no liveness annotation.
func NewPrinter() *Printer { return &Printer{} }

// Print renders every procedure in m.
func (p *Printer) Print(m *Module) string {
	var b strings.Builder
	for i, proc := range m.Procedures {
		if i > 0 {
			b.WriteString("\n")
		}
		p.printProcedure(&b, proc)
	}
	return b.String()
}

func (p *Printer) printProcedure(b *strings.Builder, proc *Procedure) {
	fmt.Fprintf(b, "proc %s(%s) entry=block%d conts=%s frame=%d {\n",
		proc.Name, regList(proc.Params), proc.Entry, blockIdList(proc.Conts), proc.FrameSpace)
	for _, blk := range proc.Blocks {
		fmt.Fprintf(b, "  block%d(%s):%s\n", blk.ID, regList(blk.Params), p.liveInSuffix(blk.ID))
		for _, idx := range blk.Instrs {
			fmt.Fprintf(b, "    %s\n", printInstr(proc.Instrs[idx]))
		}
		fmt.Fprintf(b, "    %s%s\n", printBranch(proc.Branches[blk.Branch]), p.liveOutSuffix(blk.ID))
	}
	b.WriteString("}\n")
}

func (p *Printer) liveInSuffix(id BlockId) string {
	if !p.Explain || p.LiveIn == nil {
		return ""
	}
	return "  ; live-in: " + regSetString(p.LiveIn[id])
}

func (p *Printer) liveOutSuffix(id BlockId) string {
	if !p.Explain || p.LiveOut == nil {
		return ""
	}
	return "  ; live-out: " + regSetString(p.LiveOut[id])
}

func regSetString(set map[Register]bool) string {
	if len(set) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(set))
	for r := range set {
		parts = append(parts, r.String())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func printInstr(i Instr) string {
	switch i := i.(type) {
	case Copy:
		return fmt.Sprintf("%s = copy %s", i.Target, i.Value)
	case Index:
		return fmt.Sprintf("%s = index %s, %d", i.Target, i.Value, i.Offset)
	case Tuple:
		return fmt.Sprintf("%s = tuple %s", i.Target, operandList(i.Values))
	case Crash:
		return "crash"
	default:
		return "?instr"
	}
}

func printBranch(br Branch) string {
	switch br := br.(type) {
	case Call:
		return fmt.Sprintf("call %s(%s) -> %s", br.Fun, operandList(br.Args), blockIdList(br.Conts))
	case Jump:
		return fmt.Sprintf("jump block%d(%s)", br.To, operandList(br.Args))
	case JumpIf:
		return fmt.Sprintf("jumpif %s %s %s -> block%d else block%d", br.Left, br.Cond, br.Right, br.Then, br.Else)
	case Return:
		return fmt.Sprintf("return[cont=block%d] %s", br.Cont, operandList(br.Values))
	case Crash:
		return "crash"
	default:
		return "?branch"
	}
}

func regList(rs []Register) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func operandList(os []Operand) string {
	parts := make([]string, len(os))
	for i, o := range os {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

func blockIdList(ids []BlockId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("block%d", id)
	}
	return strings.Join(parts, ", ")
}
