package pipeline

import (
	"testing"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// identityProgram mirrors spec.md's worked example 1: `let id = (x:
// 0..10) => x`.
func identityProgram(ns *names.Store) typedsurface.Node {
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	x := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "x"}}, ast.None)
	idName := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "id"}}, ast.None)

	lam := &typedsurface.Lambda{
		Params: []typedsurface.Param{{Name: x, Type: types.Range{Lo: 0, Hi: 10}}},
		Body:   &typedsurface.Var{Name: x},
	}
	return &typedsurface.Let{
		Pattern: typedsurface.PatVar{Name: idName},
		Value:   lam,
		Body:    &typedsurface.Var{Name: idName},
	}
}

func TestRunCompilesIdentityThroughCodegen(t *testing.T) {
	ns := names.NewStore()
	ts := types.NewStore()
	root := identityProgram(ns)

	res := Run(Config{}, root, ns, ts, arch.X86_64SysV())

	if res.Sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %+v", res.Sink.Reports())
	}
	if res.MIR == nil || len(res.MIR.Values) != 1 {
		t.Fatalf("expected one lowered definition, got %+v", res.MIR)
	}
	if res.LIR == nil || len(res.LIR.Procedures) != 1 {
		t.Fatalf("expected one LIR procedure, got %+v", res.LIR)
	}
	if len(res.Objects) != 1 {
		t.Fatalf("expected one emitted object, got %d", len(res.Objects))
	}
	if len(res.Objects[0].Code) == 0 {
		t.Fatalf("expected non-empty machine code for the identity function")
	}
	for _, phase := range []string{"generate", "solve", "lower_mir", "check_mir", "peval", "lower_lir", "codegen"} {
		if _, ok := res.PhaseTimings[phase]; !ok {
			t.Fatalf("expected a recorded timing for phase %q", phase)
		}
	}
}

func TestRunStopsAfterTypeCheck(t *testing.T) {
	ns := names.NewStore()
	ts := types.NewStore()
	root := identityProgram(ns)

	res := Run(Config{StopAfterTypeCheck: true}, root, ns, ts, arch.X86_64SysV())

	if res.Solver == nil {
		t.Fatalf("expected the solver stage to have run")
	}
	if res.MIR != nil {
		t.Fatalf("expected lowering to be skipped when StopAfterTypeCheck is set")
	}
}
