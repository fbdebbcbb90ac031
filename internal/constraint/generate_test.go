package constraint

import (
	"testing"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

func TestGenerateLiteralEmitsNumeric(t *testing.T) {
	g := NewGenerator()
	lit := &typedsurface.Lit{Value: 7}
	typ := g.Generate(lit)

	if _, ok := typ.(types.UVar); !ok {
		t.Fatalf("literal type should be a fresh variable, got %T", typ)
	}
	found := false
	for _, c := range g.Constraints {
		if c.Kind == KindNumeric {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Numeric constraint for a literal")
	}
}

func TestGenerateIdentityLambda(t *testing.T) {
	g := NewGenerator()
	ns := names.NewStore()
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	x := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "x"}}, ast.None)

	lam := &typedsurface.Lambda{
		Params: []typedsurface.Param{{Name: x, Type: types.Range{Lo: 0, Hi: 10}}},
		Body:   &typedsurface.Var{Name: x},
	}
	typ := g.Generate(lam)
	fn, ok := typ.(types.Function)
	if !ok {
		t.Fatalf("expected Function type, got %T", typ)
	}
	if len(fn.Params) != 1 || len(fn.Returns) != 1 {
		t.Fatalf("unexpected arity: %+v", fn)
	}
}

func TestGenerateAppEmitsAssignablePerArg(t *testing.T) {
	g := NewGenerator()
	ns := names.NewStore()
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	f := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "f"}}, ast.None)

	template := &typedsurface.Scheme{Body: types.Function{
		Params:  []types.High{types.Range{Lo: 0, Hi: 10}},
		Returns: []types.High{types.Range{Lo: 0, Hi: 10}},
	}}
	app := &typedsurface.App{
		Func: &typedsurface.Var{Name: f, Template: template},
		Args: []typedsurface.Node{&typedsurface.Lit{Value: 3}},
	}
	g.Generate(app)

	var sawInst, sawAssignable bool
	for _, c := range g.Constraints {
		switch c.Kind {
		case KindInstantiated:
			sawInst = true
		case KindAssignable:
			sawAssignable = true
		}
	}
	if !sawInst {
		t.Fatalf("expected an Instantiated constraint for the polymorphic call target")
	}
	if !sawAssignable {
		t.Fatalf("expected at least one Assignable constraint")
	}
}

func TestGenerateFieldAccessEmitsFieldConstraint(t *testing.T) {
	g := NewGenerator()
	ns := names.NewStore()
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	r := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "r"}}, ast.None)

	fa := &typedsurface.FieldAccess{Record: &typedsurface.Var{Name: r}, Label: "x"}
	g.Generate(fa)

	found := false
	for _, c := range g.Constraints {
		if c.Kind == KindField && c.FieldLabel == "x" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Field constraint for label 'x'")
	}
}
