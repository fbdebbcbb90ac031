// Package peval implements the partial evaluator (component C5): a
// small-step abstract interpreter over MIR that folds pure computation
// and rewrites each function body to the simplified form that survives
// (spec §4.5).
//
// Grounded on the teacher's internal/eval package (Value/Environment in
// value.go/env.go), generalized from AILANG's concrete tree-walking
// runtime values (IntValue/StringValue/TaggedValue/...) to the spec's
// three-way static/dynamic/function abstract-value lattice, since this
// evaluator never actually runs a program — it only decides how much of
// one can be folded at compile time.
package peval

import (
	"fmt"

	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/names"
)

// Value is an abstract value the evaluator reasons about while walking
// a MIR block (spec §4.5 "Values").
type Value interface {
	fmt.Stringer
	value()
}

// Static is a known concrete integer, tagged with the id of the frame
// that produced it (for provenance, not currently consulted by any
// reduction rule but kept because the spec calls it out explicitly).
type Static struct {
	Val    int64
	Origin uint64
}

func (Static) value()          {}
func (s Static) String() string { return fmt.Sprintf("%d", s.Val) }

// Dynamic carries a symbolic MIR value whose runtime result is unknown.
type Dynamic struct {
	Symbolic mir.Value
}

func (Dynamic) value()          {}
func (d Dynamic) String() string { return "~" + d.Symbolic.String() }

// FunctionRef refers to a known global (or nested) function by name.
type FunctionRef struct {
	Target names.Name
}

func (FunctionRef) value()          {}
func (f FunctionRef) String() string { return fmt.Sprintf("fn#%d", f.Target) }

// AggregateStatic is a fully-folded Tuple's component values, kept
// around (rather than collapsed to a single Static) so a later Proj can
// decompose it without re-deriving the original statement. This is an
// evaluator-internal value; it never appears in rewritten MIR, which
// always re-expresses an aggregate as a Tuple statement when any
// consumer needs it (toMIRValue falls back to the original operand for
// this case).
type AggregateStatic struct {
	Elems []Value
}

func (AggregateStatic) value()          {}
func (AggregateStatic) String() string { return "agg(...)" }
