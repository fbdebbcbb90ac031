package mir

import (
	"strings"
	"testing"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/constraint"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/solve"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

func TestCheckDetectsDuplicateBinding(t *testing.T) {
	n := names.NewStore().Fresh(ast.None, names.Invalid)
	bad := &Decls{Values: []ValueDef{{
		Name:        n,
		ReturnArity: 1,
		Body: &Block{
			Statements: []Statement{
				Tuple{Name: n, Values: nil},
				Tuple{Name: n, Values: nil},
			},
			Branch: Return{Values: []Value{NameRef{Name: n}}},
		},
	}}}
	errs := Check(bad)
	if len(errs) == 0 {
		t.Fatalf("expected an SSA violation error")
	}
}

func TestCheckDetectsReturnArityMismatch(t *testing.T) {
	n := names.NewStore().Fresh(ast.None, names.Invalid)
	d := &Decls{Values: []ValueDef{{
		Name:        n,
		ReturnArity: 2,
		Body: &Block{
			Branch: Return{Values: []Value{Lit{Val: 1}}},
		},
	}}}
	errs := Check(d)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one arity error, got %v", errs)
	}
}

func TestCheckPassesWellFormedBlock(t *testing.T) {
	ns := names.NewStore()
	a := ns.Fresh(ast.None, names.Invalid)
	fn := ns.Fresh(ast.None, names.Invalid)
	d := &Decls{Values: []ValueDef{{
		Name:        fn,
		ReturnArity: 1,
		Body: &Block{
			Statements: []Statement{Tuple{Name: a, Values: []Value{Lit{Val: 1}}}},
			Branch:     Return{Values: []Value{NameRef{Name: a}}},
		},
	}}}
	if errs := Check(d); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestPrinterRendersBlock(t *testing.T) {
	ns := names.NewStore()
	a := ns.Fresh(ast.None, names.Invalid)
	fn := ns.Fresh(ast.None, names.Invalid)
	d := &Decls{Values: []ValueDef{{
		Name:        fn,
		ReturnArity: 1,
		Body: &Block{
			Statements: []Statement{Tuple{Name: a, Values: []Value{Lit{Val: 1}}}},
			Branch:     Return{Values: []Value{NameRef{Name: a}}},
		},
	}}}
	p := NewPrinter(ns, types.NewStore())
	out := p.Print(d)
	if !strings.Contains(out, "tuple") || !strings.Contains(out, "return") {
		t.Fatalf("unexpected printer output: %q", out)
	}
}

func TestPrinterExplainModeShowsTypes(t *testing.T) {
	ts := types.NewStore()
	id := types.Lower(ts, types.Range{Lo: 0, Hi: 10})
	ns := names.NewStore()
	a := ns.Fresh(ast.None, names.Invalid)
	fn := ns.Fresh(ast.None, names.Invalid)
	d := &Decls{Values: []ValueDef{{
		Name:        fn,
		ReturnArity: 1,
		Body: &Block{
			Statements: []Statement{Tuple{Base: Base{NodeType: id}, Name: a, Values: []Value{Lit{Val: 1}}}},
			Branch:     Return{Values: []Value{NameRef{Name: a}}},
		},
	}}}
	p := NewPrinter(ns, ts)
	p.Explain = true
	out := p.Print(d)
	if !strings.Contains(out, "0..10") {
		t.Fatalf("expected explain mode to show the low type, got %q", out)
	}
}

func TestLowerMonomorphicIdentity(t *testing.T) {
	ns := names.NewStore()
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	x := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "x"}}, ast.None)
	idName := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "id"}}, ast.None)

	lam := &typedsurface.Lambda{
		Params: []typedsurface.Param{{Name: x, Type: types.Range{Lo: 0, Hi: 10}}},
		Body:   &typedsurface.Var{Name: x},
	}
	body := &typedsurface.Let{
		Pattern: typedsurface.PatVar{Name: idName},
		Value:   lam,
		Body:    &typedsurface.Var{Name: idName},
	}

	g := constraint.NewGenerator()
	g.Generate(body)

	s := solve.NewSolver()
	sink := diag.NewSink()
	s.Solve(g.Constraints, sink)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected solver errors: %+v", sink.Reports())
	}

	ts := types.NewStore()
	lw := NewLowerer(ns, ts, s.Unifier, s.Coercions)
	decls, errs := lw.Lower(body)
	if len(errs) != 0 {
		t.Fatalf("unexpected lowering errors: %v", errs)
	}
	if len(decls.Values) != 1 {
		t.Fatalf("expected one top-level definition, got %d", len(decls.Values))
	}
	if checkErrs := Check(decls); len(checkErrs) != 0 {
		t.Fatalf("lowered MIR failed well-formedness check: %v", checkErrs)
	}
}
