package types

import "testing"

func TestInternStructuralEquality(t *testing.T) {
	s := NewStore()
	a := s.Intern(Shape{Kind: ShapeRange, Range: Range{Lo: 0, Hi: 10}})
	b := s.Intern(Shape{Kind: ShapeRange, Range: Range{Lo: 0, Hi: 10}})
	if a != b {
		t.Fatalf("structurally equal shapes must intern to the same id")
	}
	c := s.Intern(Shape{Kind: ShapeRange, Range: Range{Lo: 0, Hi: 11}})
	if a == c {
		t.Fatalf("structurally different shapes must not collide")
	}
}

func TestLowerRaiseRoundTrip(t *testing.T) {
	s := NewStore()
	high := Function{
		Params:  []High{Range{Lo: 0, Hi: 10}},
		Returns: []High{Range{Lo: 0, Hi: 10}},
	}
	id := Lower(s, high)
	back := Raise(s, id)
	if back.String() != high.String() {
		t.Fatalf("round trip mismatch: %s != %s", back, high)
	}
}

func TestLowerInvalidForUnresolved(t *testing.T) {
	s := NewStore()
	id := Lower(s, UVar{ID: 1, Mutable: true})
	if id != InvalidTypeId {
		t.Fatalf("lowering an unresolved UVar must yield InvalidTypeId")
	}
}
