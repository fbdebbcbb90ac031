// Package solve implements the constraint solver (component C3): a
// worklist fixed-point loop that drains the flat constraint list the
// generator (package constraint) produced, driving a types.Unifier to a
// final substitution plus a recorded coercion-state map.
//
// Grounded on the teacher's SolveConstraints / solveStep loop in
// internal/types/inference.go, generalized from AILANG's incremental
// solve-as-you-go algorithm W to the spec's separate generate-then-solve
// worklist (spec §4.3).
package solve

import (
	"github.com/zc-lang/zc/internal/constraint"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// varIDOffset separates the solver's own freshly minted unification
// variables (instantiation copies) from the generator's, which start
// counting at 1. The two counters are never shared, so disjoint ranges
// are enough to avoid accidental collisions in the unifier's
// substitution map.
const varIDOffset = 1 << 32

// Solver drives one generated constraint list to a fixed point.
type Solver struct {
	Unifier   *types.Unifier
	Coercions map[constraint.CoercionID]types.CoercionState

	aliases map[names.Name]types.High
	nextVar uint64
}

// NewSolver creates an empty Solver.
func NewSolver() *Solver {
	return &Solver{
		Unifier:   types.NewUnifier(),
		Coercions: make(map[constraint.CoercionID]types.CoercionState),
		aliases:   make(map[names.Name]types.High),
		nextVar:   varIDOffset,
	}
}

// DefineAlias registers a named type alias's definition, consulted by
// KindAlias constraints (spec §4.1 named types / glossary "Alias").
func (s *Solver) DefineAlias(name names.Name, def types.High) {
	s.aliases[name] = def
}

func (s *Solver) freshVar() types.High {
	s.nextVar++
	return types.UVar{ID: s.nextVar, Mutable: true}
}

// pending wraps a constraint with its deferral count, used only by the
// Field/Alias "retry once, then ambiguous" rule (spec §4.3).
type pending struct {
	c       constraint.Constraint
	retries int
}

// Solve drains cs to a fixed point, appending every diagnostic it
// produces to sink. It never panics or returns an error itself: every
// failure becomes a Report, per the core's soft-failing propagation
// policy (spec §7).
func (s *Solver) Solve(cs []constraint.Constraint, sink diag.Sink) {
	queue := make([]pending, len(cs))
	for i, c := range cs {
		queue[i] = pending{c: c}
	}

	var numeric []types.NumericObligation

	for len(queue) > 0 {
		next := make([]pending, 0, len(queue))
		progressed := false

		for _, p := range queue {
			resolved, deferrable := s.process(p.c, &numeric, sink)
			if resolved {
				progressed = true
				continue
			}
			if deferrable && p.retries < 1 {
				next = append(next, pending{c: p.c, retries: p.retries + 1})
				continue
			}
			if deferrable {
				sink.Add(ambiguityReport(p.c))
				progressed = true
				continue
			}
			next = append(next, pending{c: p.c, retries: p.retries + 1})
		}

		if !progressed {
			// A full pass produced no reduction: everything still
			// queued is ambiguous (spec §4.3: "if a pass fails to
			// reduce the count, every remaining constraint is reported
			// as ambiguous and solving ends").
			for _, p := range next {
				sink.Add(ambiguityReport(p.c))
			}
			break
		}
		queue = next
	}

	for _, err := range s.Unifier.ResolveNumeric(numeric) {
		sink.Add(numericErrorReport(err))
	}
	for _, err := range types.CheckDelayed(s.Unifier.Delayed) {
		sink.Add(delayedErrorReport(err))
	}
}

// process attempts to resolve one constraint. resolved reports whether
// the constraint was fully handled this call (whether or not it
// succeeded — a hard type error still counts as resolved, since
// retrying it would never help). deferrable reports whether, had it not
// resolved, it is eligible for the Field/Alias one-time requeue.
func (s *Solver) process(c constraint.Constraint, numeric *[]types.NumericObligation, sink diag.Sink) (resolved, deferrable bool) {
	switch c.Kind {
	case constraint.KindNumeric, constraint.KindTypeNumeric:
		*numeric = append(*numeric, types.NumericObligation{Type: c.Numeric})
		return true, false

	case constraint.KindEqual:
		if err := s.Unifier.Unify(c.T, c.U); err != nil {
			sink.Add(typeErrorReport(c.At, err))
		}
		return true, false

	case constraint.KindAssignable:
		result := s.Unifier.Coerce(c.Into, c.From)
		s.Coercions[c.CoercionID] = result.State
		s.Unifier.Delayed = append(s.Unifier.Delayed, result.Delayed...)
		if result.State == types.CoercionInvalid {
			sink.Add(coercionFailureReport(c.At, c.Into, c.From))
		}
		return true, false

	case constraint.KindInstantiated:
		inst := s.instantiate(c.InstTemplate)
		if err := s.Unifier.Unify(c.InstTarget, inst); err != nil {
			sink.Add(typeErrorReport(c.At, err))
		}
		return true, false

	case constraint.KindField:
		rec := s.Unifier.Apply(c.FieldRecord)
		if _, stillVar := rec.(types.UVar); stillVar {
			return false, true
		}
		record, ok := rec.(types.Record)
		if !ok {
			sink.Add(missingFieldReport(c.At, c.FieldLabel))
			return true, false
		}
		ft, ok := record.FieldType(c.FieldLabel)
		if !ok {
			sink.Add(missingFieldReport(c.At, c.FieldLabel))
			return true, false
		}
		if err := s.Unifier.Unify(ft, c.FieldType); err != nil {
			sink.Add(typeErrorReport(c.At, err))
		}
		return true, false

	case constraint.KindAlias:
		def, ok := s.aliases[c.AliasName]
		if !ok {
			return false, true
		}
		if err := s.Unifier.Unify(c.AliasType, def); err != nil {
			sink.Add(typeErrorReport(c.At, err))
		}
		return true, false

	default:
		return true, false
	}
}

// instantiate mints a fresh unification variable per implicit parameter
// of scheme and resolves its body against them (spec §4.2 Instantiated).
func (s *Solver) instantiate(scheme *typedsurface.Scheme) types.High {
	if scheme == nil {
		return types.Invalid{Reason: "missing template"}
	}
	m := make(map[names.Name]types.High, len(scheme.Vars))
	for _, v := range scheme.Vars {
		m[v] = s.freshVar()
	}
	return types.Instantiated{Type: scheme.Body, Template: m}.Resolve()
}
