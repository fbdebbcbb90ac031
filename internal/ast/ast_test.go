package ast

import "testing"

func TestSpanContains(t *testing.T) {
	sp := Span{
		Start: Pos{File: "a.z", Line: 1, Column: 1, Offset: 0},
		End:   Pos{File: "a.z", Line: 1, Column: 10, Offset: 9},
	}
	if !sp.Contains(Pos{File: "a.z", Offset: 5}) {
		t.Fatalf("expected offset 5 to be within span")
	}
	if sp.Contains(Pos{File: "a.z", Offset: 9}) {
		t.Fatalf("span end is exclusive")
	}
	if sp.Contains(Pos{File: "b.z", Offset: 1}) {
		t.Fatalf("different file must not be contained")
	}
}

func TestPosString(t *testing.T) {
	p := Pos{File: "a.z", Line: 3, Column: 4}
	if got, want := p.String(), "a.z:3:4"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
