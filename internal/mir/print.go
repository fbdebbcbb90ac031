package mir

import (
	"fmt"
	"strings"

	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/types"
)

// Printer renders Decls as a textual dump (spec §6 "Core output": "MIR
// and LIR textual dumps... produced by a pretty-printer that is a
// read-only consumer of the interned name/type stores").
//
// Grounded on the Explain-mode pretty-printer supplemented from
// original_source/zetah11-zippy: a plain mode for diffable golden-file
// dumps, and an Explain mode that interleaves each statement with the
// low type its result was interned at, for interactive `--explain`
// debugging.
type Printer struct {
	Names   *names.Store
	Types   *types.Store
	Explain bool
}

// NewPrinter creates a Printer bound to the stores a lowering run used.
func NewPrinter(n *names.Store, t *types.Store) *Printer {
	return &Printer{Names: n, Types: t}
}

// Print renders d in full.
func (p *Printer) Print(d *Decls) string {
	var b strings.Builder
	for i, vd := range d.Values {
		if i > 0 {
			b.WriteString("\n")
		}
		p.printValueDef(&b, vd, 0)
	}
	return b.String()
}

func (p *Printer) printValueDef(b *strings.Builder, vd ValueDef, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%sfn %s(%s) -> %d:\n", pad, p.name(vd.Name), p.nameList(vd.Params), vd.ReturnArity)
	p.printBlock(b, vd.Body, indent+1)
}

func (p *Printer) printBlock(b *strings.Builder, block *Block, indent int) {
	pad := strings.Repeat("  ", indent)
	if block == nil {
		fmt.Fprintf(b, "%s<missing block>\n", pad)
		return
	}
	for _, s := range block.Statements {
		p.printStatement(b, s, indent)
	}
	p.printBranch(b, block.Branch, indent)
}

func (p *Printer) printStatement(b *strings.Builder, s Statement, indent int) {
	pad := strings.Repeat("  ", indent)
	switch s := s.(type) {
	case Apply:
		fmt.Fprintf(b, "%s%s = apply %s(%s)%s\n", pad, p.nameList(s.Names), s.Fun, p.valueList(s.Args), p.typeSuffix(s.NodeType))
	case Tuple:
		fmt.Fprintf(b, "%s%s = tuple(%s)%s\n", pad, p.name(s.Name), p.valueList(s.Values), p.typeSuffix(s.NodeType))
	case Proj:
		fmt.Fprintf(b, "%s%s = proj %s[%d]%s\n", pad, p.name(s.Name), s.Of, s.At, p.typeSuffix(s.NodeType))
	case Function:
		fmt.Fprintf(b, "%s%s = function(%s) -> %d:\n", pad, p.name(s.Name), p.nameList(s.Params), s.ReturnArity)
		p.printBlock(b, s.Body, indent+1)
	case Join:
		fmt.Fprintf(b, "%sjoin %s\n", pad, p.name(s.Label))
	case Coerce:
		fmt.Fprintf(b, "%s%s = coerce %s (%s)%s\n", pad, p.name(s.Name), s.From, coercionStateString(s.State), p.typeSuffix(s.NodeType))
	default:
		fmt.Fprintf(b, "%s<unknown statement>\n", pad)
	}
}

func (p *Printer) printBranch(b *strings.Builder, br Branch, indent int) {
	pad := strings.Repeat("  ", indent)
	switch br := br.(type) {
	case Return:
		fmt.Fprintf(b, "%sreturn %s\n", pad, p.valueList(br.Values))
	case Jump:
		fmt.Fprintf(b, "%sjump %s(%s)\n", pad, p.name(br.Label), br.Arg)
	default:
		fmt.Fprintf(b, "%s<missing branch>\n", pad)
	}
}

func (p *Printer) name(n names.Name) string {
	if p.Names == nil {
		return fmt.Sprintf("#%d", n)
	}
	return p.Names.String(n)
}

func (p *Printer) nameList(ns []names.Name) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = p.name(n)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) valueList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) typeSuffix(id types.TypeId) string {
	if !p.Explain || p.Types == nil {
		return ""
	}
	return fmt.Sprintf("  ; : %s", p.Types.ShapeOf(id))
}

func coercionStateString(s types.CoercionState) string {
	switch s {
	case types.CoercionEqual:
		return "equal"
	case types.CoercionCoercible:
		return "coercible"
	case types.CoercionInvalid:
		return "invalid"
	default:
		return "?"
	}
}
