package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestUnifyRangeLiteralEqual(t *testing.T) {
	u := NewUnifier()
	if err := u.Unify(Range{Lo: 0, Hi: 10}, Range{Lo: 0, Hi: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Delayed) != 0 {
		t.Fatalf("equal ranges should not enqueue delayed obligations, got %v", u.Delayed)
	}
}

func TestUnifyRangeMismatchDelays(t *testing.T) {
	u := NewUnifier()
	if err := u.Unify(Range{Lo: 0, Hi: 10}, Range{Lo: 2, Hi: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Delayed) == 0 {
		t.Fatalf("expected a delayed subset obligation")
	}
}

func TestOccursCheckFails(t *testing.T) {
	u := NewUnifier()
	v := UVar{ID: 1, Mutable: true}
	f := Function{Params: []High{v}, Returns: []High{Range{Lo: 0, Hi: 1}}}
	err := u.Unify(v, f)
	if err == nil {
		t.Fatalf("expected occurs check error")
	}
	if _, ok := err.(*OccursError); !ok {
		t.Fatalf("expected *OccursError, got %T", err)
	}
	if b := u.Sub[1]; !IsInvalid(b.Type) {
		t.Fatalf("occurs-check failure must record an Invalid substitution, got %v", b.Type)
	}
}

func TestUnifyVariableBindsThenFollows(t *testing.T) {
	u := NewUnifier()
	v := UVar{ID: 7, Mutable: true}
	if err := u.Unify(v, Range{Lo: 0, Hi: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := u.Apply(v)
	want := High(Range{Lo: 0, Hi: 5})
	if diff := cmp.Diff(want, got, cmpopts.EquateComparable(Range{})); diff != "" {
		t.Fatalf("Apply(v) mismatch (-want +got):\n%s", diff)
	}
}

func TestUnifyFunctionArityMismatch(t *testing.T) {
	u := NewUnifier()
	f1 := Function{Params: []High{Range{Lo: 0, Hi: 1}}, Returns: []High{Range{Lo: 0, Hi: 1}}}
	f2 := Function{Params: []High{Range{Lo: 0, Hi: 1}, Range{Lo: 0, Hi: 1}}, Returns: []High{Range{Lo: 0, Hi: 1}}}
	if err := u.Unify(f1, f2); err == nil {
		t.Fatalf("expected arity mismatch error")
	}
}

func TestCoerceRangeIntoItselfIsEqual(t *testing.T) {
	u := NewUnifier()
	r := Range{Lo: 0, Hi: 5}
	res := u.Coerce(r, r)
	if res.State != CoercionEqual {
		t.Fatalf("expected CoercionEqual for range into itself, got %v", res.State)
	}
}

func TestCoerceRangeNarrowingDelays(t *testing.T) {
	u := NewUnifier()
	res := u.Coerce(Range{Lo: 0, Hi: 5}, Range{Lo: 0, Hi: 10})
	if res.State != CoercionCoercible {
		t.Fatalf("expected CoercionCoercible, got %v", res.State)
	}
	errs := CheckDelayed(res.Delayed)
	if len(errs) == 0 {
		t.Fatalf("expected delayed subset check to fail: 0..10 is not a subset of 0..5")
	}
}

func TestCoerceRecordNarrowing(t *testing.T) {
	u := NewUnifier()
	wide := Record{Fields: []Field{
		{Label: "x", Type: Range{Lo: 0, Hi: 10}},
		{Label: "y", Type: Range{Lo: 0, Hi: 10}},
	}}
	narrow := Record{Fields: []Field{
		{Label: "x", Type: Range{Lo: 0, Hi: 10}},
	}}
	res := u.Coerce(narrow, wide)
	if res.State == CoercionInvalid {
		t.Fatalf("expected narrow record to coerce from wide record")
	}
}

func TestResolveNumericDefaultsFreeVar(t *testing.T) {
	u := NewUnifier()
	v := UVar{ID: 3, Mutable: true}
	errs := u.ResolveNumeric([]NumericObligation{{Type: v}})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := u.Apply(v).(Number); !ok {
		t.Fatalf("expected free numeric var to default to Number, got %v", u.Apply(v))
	}
}

func TestCheckLiteralOutOfRange(t *testing.T) {
	if err := CheckLiteral(Range{Lo: 0, Hi: 5}, 7); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if err := CheckLiteral(Range{Lo: 0, Hi: 5}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmptyRangeRejectsEveryLiteral(t *testing.T) {
	r := Range{Lo: 5, Hi: 5}
	if !r.Empty() {
		t.Fatalf("lo==hi must be empty")
	}
	if err := CheckLiteral(r, 5); err == nil {
		t.Fatalf("empty range must reject every literal")
	}
}
