package lir

import (
	"strings"
	"testing"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/liveness"
	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/names"
)

func freshName(ns *names.Store) names.Name { return ns.Fresh(ast.None, names.Invalid) }

func TestFlattenEliminatesLocalProjOfTuple(t *testing.T) {
	ns := names.NewStore()
	pair, first, fn := freshName(ns), freshName(ns), freshName(ns)

	decls := &mir.Decls{Values: []mir.ValueDef{{
		Name:        fn,
		ReturnArity: 1,
		Body: &mir.Block{
			Statements: []mir.Statement{
				mir.Tuple{Name: pair, Values: []mir.Value{mir.Lit{Val: 3}, mir.Lit{Val: 4}}},
				mir.Proj{Name: first, Of: mir.NameRef{Name: pair}, At: 0},
			},
			Branch: mir.Return{Values: []mir.Value{mir.NameRef{Name: first}}},
		},
	}}}

	flat := Flatten(decls)
	body := flat.Values[0].Body
	if len(body.Statements) != 1 {
		t.Fatalf("expected the Tuple to be dropped once its Proj folded, got %d statements", len(body.Statements))
	}
	if _, ok := body.Statements[0].(mir.Coerce); !ok {
		t.Fatalf("expected the Proj to become a direct Coerce pass-through, got %T", body.Statements[0])
	}
}

func TestLowerSplitsBlockAtApply(t *testing.T) {
	ns := names.NewStore()
	callee, caller, x, r := freshName(ns), freshName(ns), freshName(ns), freshName(ns)

	decls := &mir.Decls{Values: []mir.ValueDef{
		{
			Name:        callee,
			Params:      []names.Name{x},
			ReturnArity: 1,
			Body: &mir.Block{
				Branch: mir.Return{Values: []mir.Value{mir.NameRef{Name: x}}},
			},
		},
		{
			Name:        caller,
			ReturnArity: 1,
			Body: &mir.Block{
				Statements: []mir.Statement{
					mir.Apply{Names: []names.Name{r}, Fun: mir.NameRef{Name: callee}, Args: []mir.Value{mir.Lit{Val: 9}}},
				},
				Branch: mir.Return{Values: []mir.Value{mir.NameRef{Name: r}}},
			},
		},
	}}

	lw := NewLowerer(ns)
	mod := lw.Lower(decls)

	var callerProc *Procedure
	for _, p := range mod.Procedures {
		if len(p.Params) == 0 && len(p.Blocks) > 1 {
			callerProc = p
		}
	}
	if callerProc == nil {
		t.Fatalf("expected to find the caller procedure with a split block, procedures: %+v", mod.Procedures)
	}
	if len(callerProc.Blocks) != 2 {
		t.Fatalf("expected exactly two blocks (entry + call continuation), got %d", len(callerProc.Blocks))
	}
	entry := callerProc.Blocks[0]
	call, ok := callerProc.Branches[entry.Branch].(Call)
	if !ok {
		t.Fatalf("expected the entry block to end in a Call, got %T", callerProc.Branches[entry.Branch])
	}
	if _, ok := call.Fun.(Label); !ok {
		t.Fatalf("expected the call target to resolve to a Label, got %#v", call.Fun)
	}
	cont := callerProc.Blocks[1]
	if _, ok := callerProc.Branches[cont.Branch].(Return); !ok {
		t.Fatalf("expected the continuation block to end in Return, got %T", callerProc.Branches[cont.Branch])
	}
}

func TestPrinterRendersProcedure(t *testing.T) {
	ns := names.NewStore()
	fn := freshName(ns)
	decls := &mir.Decls{Values: []mir.ValueDef{{
		Name:        fn,
		ReturnArity: 1,
		Body: &mir.Block{
			Branch: mir.Return{Values: []mir.Value{mir.Lit{Val: 1}}},
		},
	}}}
	mod := NewLowerer(ns).Lower(decls)
	out := NewPrinter().Print(mod)
	if !strings.Contains(out, "proc fn") || !strings.Contains(out, "return") {
		t.Fatalf("unexpected printer output: %q", out)
	}
}

func TestPrinterExplainModeAnnotatesLiveness(t *testing.T) {
	ns := names.NewStore()
	callee, caller, x, r := freshName(ns), freshName(ns), freshName(ns), freshName(ns)

	decls := &mir.Decls{Values: []mir.ValueDef{
		{
			Name:        callee,
			Params:      []names.Name{x},
			ReturnArity: 1,
			Body: &mir.Block{
				Branch: mir.Return{Values: []mir.Value{mir.NameRef{Name: x}}},
			},
		},
		{
			Name:        caller,
			ReturnArity: 1,
			Body: &mir.Block{
				Statements: []mir.Statement{
					mir.Apply{Names: []names.Name{r}, Fun: mir.NameRef{Name: callee}, Args: []mir.Value{mir.Lit{Val: 9}}},
				},
				Branch: mir.Return{Values: []mir.Value{mir.NameRef{Name: r}}},
			},
		},
	}}
	mod := NewLowerer(ns).Lower(decls)

	var callerProc *Procedure
	for _, p := range mod.Procedures {
		if len(p.Params) == 0 && len(p.Blocks) > 1 {
			callerProc = p
		}
	}
	if callerProc == nil {
		t.Fatalf("expected to find the caller procedure with a split block")
	}
	liveIn, liveOut := liveness.Approximate(callerProc)

	out := (&Printer{Explain: true, LiveIn: liveIn, LiveOut: liveOut}).Print(mod)
	if !strings.Contains(out, "live-in:") || !strings.Contains(out, "live-out:") {
		t.Fatalf("expected Explain mode to annotate blocks with liveness, got %q", out)
	}

	plain := NewPrinter().Print(mod)
	if strings.Contains(plain, "live-in:") {
		t.Fatalf("expected plain Printer to omit liveness annotations, got %q", plain)
	}
}
