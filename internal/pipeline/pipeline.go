// Package pipeline orchestrates components C1 through C9 into one
// compilation run: constraint generation, solving, MIR lowering, MIR
// well-formedness checking, partial evaluation, LIR lowering, liveness,
// register allocation, and code emission, threading a single
// diag.Sink through every stage (spec §7's soft-failing propagation
// policy: a pass reports and continues rather than aborting the whole
// pipeline on its own).
//
// Grounded on the teacher's internal/pipeline.Run staged-Config/Result
// driver (internal/pipeline/pipeline.go): a Config selects what a run
// does, a Result accumulates every stage's artifacts plus per-phase
// timings, and Run decides whether to continue past a stage by
// inspecting the sink's error count rather than by a stage returning an
// error value directly, generalized from AILANG's single-file/module
// mode switch (this core has none — spec §1 places source loading out
// of scope) to the stop-after-N-errors switch SPEC_FULL.md calls for.
package pipeline

import (
	"time"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/codegen"
	"github.com/zc-lang/zc/internal/constraint"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/lir"
	"github.com/zc-lang/zc/internal/liveness"
	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/peval"
	"github.com/zc-lang/zc/internal/regalloc"
	"github.com/zc-lang/zc/internal/solve"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// Config selects which stages a Run executes and how far it pushes past
// errors. The default zero value runs every stage through code
// generation.
type Config struct {
	// StopAfterTypeCheck runs only C1-C3 (spec §6 CLI surface's `check`
	// command: "run front-end + C1..C3 and publish diagnostics").
	StopAfterTypeCheck bool
	// SkipPartialEval disables C5, leaving MIR exactly as C4 lowered it
	// (useful for debug dumps that want to see pre-peval shape).
	SkipPartialEval bool
	// MaxErrors aborts the run once the sink's error count reaches this
	// many; zero means no cap. An error-severity InternalAssertion report
	// stops the run whatever this is set to.
	MaxErrors int
}

// Result accumulates every stage's artifacts. Later fields are nil when
// Config or an earlier error stopped the run short.
type Result struct {
	Constraints []constraint.Constraint
	Solver      *solve.Solver
	MIR         *mir.Decls
	LIR         *lir.Module
	Objects     []codegen.Object

	Sink         diag.Sink
	PhaseTimings map[string]time.Duration
}

// Run executes the pipeline over root, a typed tree the front end
// already produced (spec §6 "Source → TypedTree": the core never does
// its own lexing/parsing/name resolution). d is the target architecture
// descriptor C8/C9 allocate and emit against.
func Run(cfg Config, root typedsurface.Node, ns *names.Store, ts *types.Store, d *arch.Descriptor) Result {
	sink := diag.NewSink()
	res := Result{Sink: sink, PhaseTimings: make(map[string]time.Duration)}

	timed := func(phase string, f func()) {
		start := time.Now()
		f()
		res.PhaseTimings[phase] = time.Since(start)
	}

	// An error-severity InternalAssertion report also stops the run: it
	// marks a bug in the core, not a user error.
	tooManyErrors := func() bool {
		if cfg.MaxErrors > 0 && sink.ErrorCount() >= cfg.MaxErrors {
			return true
		}
		for _, r := range sink.Reports() {
			if r.Kind == diag.KindInternalAssertion && r.Severity == diag.SeverityError {
				return true
			}
		}
		return false
	}

	var gen *constraint.Generator
	timed("generate", func() {
		gen = constraint.NewGenerator()
		gen.Generate(root)
		res.Constraints = gen.Constraints
	})
	if tooManyErrors() {
		return res
	}

	var solver *solve.Solver
	timed("solve", func() {
		solver = solve.NewSolver()
		solver.Solve(res.Constraints, sink)
		res.Solver = solver
	})
	if cfg.StopAfterTypeCheck || tooManyErrors() {
		return res
	}

	timed("lower_mir", func() {
		lowerer := mir.NewLowerer(ns, ts, solver.Unifier, solver.Coercions)
		decls, errs := lowerer.Lower(root)
		res.MIR = decls
		for _, err := range errs {
			sink.Add(&diag.Report{
				Schema:   "zc.diag/v1",
				Code:     diag.LWR001,
				Kind:     diag.KindHolePresent,
				Severity: diag.SeverityError,
				Phase:    "lower_mir",
				Title:    "lowering error",
				Message:  err.Error(),
			})
		}
	})
	if res.MIR == nil || tooManyErrors() {
		return res
	}

	timed("check_mir", func() {
		for _, err := range mir.Check(res.MIR) {
			sink.Add(&diag.Report{
				Schema:   "zc.diag/v1",
				Code:     diag.LWR001,
				Kind:     diag.KindInternalAssertion,
				Severity: diag.SeverityError,
				Phase:    "check_mir",
				Title:    "MIR well-formedness violation",
				Message:  err.Error(),
			})
		}
	})
	if tooManyErrors() {
		return res
	}

	if !cfg.SkipPartialEval {
		timed("peval", func() {
			ev := peval.NewEvaluator(res.MIR, ns, sink)
			res.MIR = ev.Run(res.MIR)
		})
	}
	if tooManyErrors() {
		return res
	}

	timed("lower_lir", func() {
		lowerer := lir.NewLowerer(ns)
		res.LIR = lowerer.Lower(res.MIR)
	})
	if res.LIR == nil || tooManyErrors() {
		return res
	}

	timed("codegen", func() {
		for _, proc := range res.LIR.Procedures {
			alloc := regalloc.Assign(ts, d, proc)
			applied := regalloc.Apply(alloc, proc)
			res.Objects = append(res.Objects, codegen.Emit(d, applied, sink))
		}
	})

	return res
}

// LiveSets exposes a procedure's approximate per-block live-in/live-out
// registers, the "approximate liveness as a standalone query" feature
// supplemented from original_source (crates/backend/src/asm/alloc/liveness/mod.rs)
// and consumed by the LIR pretty-printer's Explain mode.
func LiveSets(proc *lir.Procedure) (in, out map[lir.BlockId]map[lir.Register]bool) {
	return liveness.Approximate(proc)
}
