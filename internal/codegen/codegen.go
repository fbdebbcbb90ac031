// Package codegen implements component C9: x86-64 instruction selection
// and machine-code emission over a procedure whose registers have all
// been made concrete by internal/regalloc (spec §4.9 "Code emitter").
//
// Selection is staged in two passes, the way the original compiler this
// core is descended from stages it (select(), an architecture-neutral
// instruction list per block, followed by encode(), the byte-level
// assembler): `selectBlock` turns one lir.Block into a slice of
// `instruction` values (mnemonics over already-concrete operands,
// mirroring the pack's only complete backend,
// hhramberg-go-vslc/src/backend/arm/function.go's per-statement
// emission, generalized from its textual `util.Writer.Ins2`-style calls
// to a struct the encoder can later turn into bytes), and `encode` walks
// the whole module twice: once to size every block (so label and
// relocation offsets are known) and once to actually emit (spec §4.9
// "block references... resolved in a second pass").
package codegen

import (
	"fmt"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/lir"
)

// RelocationKind distinguishes how a relocation's addend is interpreted
// at link time (spec §6 "{ name, offset, kind }").
type RelocationKind uint8

const (
	// Relative is a PC-relative displacement from the end of the
	// instruction that carries it (a CALL/JMP/Jcc rel32 operand).
	Relative RelocationKind = iota
	// RelativeNext is PC-relative from the start of the *next*
	// instruction, used for a LEA-style reference that does not itself
	// transfer control (spec §4.9 named references via LEA for PUSHed
	// continuation addresses).
	RelativeNext
	// Absolute is a plain 64-bit address, used when a named reference is
	// loaded as data rather than as a branch target.
	Absolute
)

func (k RelocationKind) String() string {
	switch k {
	case Relative:
		return "relative"
	case RelativeNext:
		return "relative_next"
	case Absolute:
		return "absolute"
	default:
		return "?"
	}
}

// Relocation records one place in the output buffer that a linker must
// patch once it knows Name's final address.
type Relocation struct {
	Name   string
	Offset int
	Kind   RelocationKind
}

// Object is the emitted form of one procedure: its machine code and the
// relocations a linker must resolve against it (spec §6 "Emitted machine
// code as a byte buffer plus relocation table").
type Object struct {
	Name   string
	Code   []byte
	Relocs []Relocation
}

// Emit lowers proc (already register-allocated: every Register is a
// PhysicalReg or FrameReg) into an Object, selecting instructions
// against d's calling convention and reporting any register the
// selector cannot encode as a GEN001 internal assertion rather than
// panicking (spec §7 soft-failing propagation policy).
func Emit(d *arch.Descriptor, proc *lir.Procedure, sink diag.Sink) Object {
	order := blockOrder(proc)
	sel := &selector{d: d, proc: proc, order: order, sink: sink}

	blocks := make(map[lir.BlockId][]instruction, len(order))
	for i, id := range order {
		b := proc.Block(id)
		if b == nil {
			continue
		}
		blocks[id] = sel.selectBlock(i, order, b)
	}

	return encode(proc.Name, order, blocks)
}

// blockOrder fixes the procedure's emission order: entry first, then
// every other block in the order the Blocks arena already holds them.
// The order matters because Call selection asks "is my return
// continuation the syntactically next block" (spec §4.9).
func blockOrder(proc *lir.Procedure) []lir.BlockId {
	order := make([]lir.BlockId, 0, len(proc.Blocks))
	seen := make(map[lir.BlockId]bool)
	if b := proc.Block(proc.Entry); b != nil {
		order = append(order, b.ID)
		seen[b.ID] = true
	}
	for _, b := range proc.Blocks {
		if !seen[b.ID] {
			order = append(order, b.ID)
			seen[b.ID] = true
		}
	}
	return order
}

func internalAssertion(sink diag.Sink, span ast.Span, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	sink.Add(&diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.GEN001,
		Kind:     diag.KindInternalAssertion,
		Severity: diag.SeverityError,
		Phase:    "codegen",
		Title:    "unencodable instruction",
		Message:  msg,
		Span:     &span,
	})
}
