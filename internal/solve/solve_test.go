package solve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/constraint"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

func TestSolveEqualUnifiesVariables(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	v := types.UVar{ID: 1, Mutable: true}
	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindEqual, T: v, U: types.Range{Lo: 0, Hi: 10}},
	}, sink)

	require.Zero(t, sink.ErrorCount(), "unexpected errors: %+v", sink.Reports())
	got := s.Unifier.Apply(v)
	require.Equal(t, types.Range{Lo: 0, Hi: 10}, got)
}

func TestSolveEqualMismatchReportsTypeError(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindEqual, T: types.Range{Lo: 0, Hi: 2}, U: types.Function{}},
	}, sink)

	require.Equal(t, 1, sink.ErrorCount(), "expected one error, got %+v", sink.Reports())
	require.Equal(t, diag.TC001, sink.Reports()[0].Code)
}

func TestSolveNumericDefaultsToNumber(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	v := types.UVar{ID: 1, Mutable: true}
	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindNumeric, Numeric: v},
	}, sink)

	require.Zero(t, sink.ErrorCount(), "unexpected errors: %+v", sink.Reports())
	got := s.Unifier.Apply(v)
	require.IsType(t, types.Number{}, got)
}

func TestSolveAssignableNarrowingIsDelayedThenChecked(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	id := constraint.CoercionID(1)
	s.Solve([]constraint.Constraint{
		{
			Kind:       constraint.KindAssignable,
			CoercionID: id,
			Into:       types.Range{Lo: 0, Hi: 5},
			From:       types.Range{Lo: 0, Hi: 100},
		},
	}, sink)

	require.Equal(t, types.CoercionCoercible, s.Coercions[id])
	require.Equal(t, 1, sink.ErrorCount(), "expected one range-subtype error, got %+v", sink.Reports())
}

func TestSolveAssignableWideningSucceeds(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	id := constraint.CoercionID(1)
	s.Solve([]constraint.Constraint{
		{
			Kind:       constraint.KindAssignable,
			CoercionID: id,
			Into:       types.Range{Lo: 0, Hi: 100},
			From:       types.Range{Lo: 0, Hi: 5},
		},
	}, sink)

	require.Equal(t, types.CoercionCoercible, s.Coercions[id])
	require.Zero(t, sink.ErrorCount(), "unexpected errors: %+v", sink.Reports())
}

func TestSolveFieldConstraintOnResolvedRecord(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	rv := types.UVar{ID: 1, Mutable: true}
	ft := types.UVar{ID: 2, Mutable: true}
	record := types.Record{Fields: []types.Field{{Label: "x", Type: types.Range{Lo: 0, Hi: 10}}}}

	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindEqual, T: rv, U: record},
		{Kind: constraint.KindField, FieldRecord: rv, FieldLabel: "x", FieldType: ft},
	}, sink)

	require.Zero(t, sink.ErrorCount(), "unexpected errors: %+v", sink.Reports())
	got := s.Unifier.Apply(ft)
	require.Equal(t, types.Range{Lo: 0, Hi: 10}, got)
}

func TestSolveFieldConstraintMissingLabelReportsError(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	record := types.Record{Fields: []types.Field{{Label: "x", Type: types.Range{Lo: 0, Hi: 10}}}}
	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindField, FieldRecord: record, FieldLabel: "missing", FieldType: types.UVar{ID: 1, Mutable: true}},
	}, sink)

	require.Equal(t, 1, sink.ErrorCount(), "expected one TC003 report, got %+v", sink.Reports())
	require.Equal(t, diag.TC003, sink.Reports()[0].Code)
}

func TestSolveFieldConstraintStaysUnresolvedReportsAmbiguity(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	// Nothing ever equates rv to a Record, so once a pass makes no progress
	// it must be reported as ambiguous rather than looping forever.
	rv := types.UVar{ID: 1, Mutable: true}
	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindField, FieldRecord: rv, FieldLabel: "x", FieldType: types.UVar{ID: 2, Mutable: true}},
	}, sink)

	require.Equal(t, 1, sink.ErrorCount(), "expected one SLV001 ambiguity report, got %+v", sink.Reports())
	require.Equal(t, diag.SLV001, sink.Reports()[0].Code)
}

func TestSolveInstantiatedFreshensPerUseSite(t *testing.T) {
	s := NewSolver()
	sink := diag.NewSink()

	ns := names.NewStore()
	root := ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None)
	a := ns.Intern(names.Path{Parent: root, Actual: names.Actual{Kind: names.Literal, Text: "a"}}, ast.None)

	template := &typedsurface.Scheme{
		Vars: []names.Name{a},
		Body: types.Function{Params: []types.High{types.Named{Name: a}}, Returns: []types.High{types.Named{Name: a}}},
	}

	target1 := types.UVar{ID: 10, Mutable: true}
	target2 := types.UVar{ID: 11, Mutable: true}
	s.Solve([]constraint.Constraint{
		{Kind: constraint.KindInstantiated, InstTarget: target1, InstTemplate: template},
		{Kind: constraint.KindInstantiated, InstTarget: target2, InstTemplate: template},
	}, sink)

	require.Zero(t, sink.ErrorCount(), "unexpected errors: %+v", sink.Reports())
	f1, ok := s.Unifier.Apply(target1).(types.Function)
	require.True(t, ok)
	f2, ok := s.Unifier.Apply(target2).(types.Function)
	require.True(t, ok)
	v1, ok := f1.Params[0].(types.UVar)
	require.True(t, ok)
	v2, ok := f2.Params[0].(types.UVar)
	require.True(t, ok)
	require.NotEqual(t, v1.ID, v2.ID, "expected each use-site to get a distinct fresh variable")
}
