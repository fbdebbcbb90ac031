package names

import (
	"testing"

	"github.com/zc-lang/zc/internal/ast"
)

func TestInternIdempotent(t *testing.T) {
	s := NewStore()
	root := s.Intern(Path{Actual: Actual{Kind: Root}}, ast.None)
	p := Path{Parent: root, Actual: Actual{Kind: Literal, Text: "x"}}

	n1 := s.Intern(p, ast.None)
	n2 := s.Intern(p, ast.None)
	if n1 != n2 {
		t.Fatalf("Intern not idempotent: %v != %v", n1, n2)
	}

	got, ok := s.PathOf(n1)
	if !ok || got != p {
		t.Fatalf("PathOf(Intern(p)) = %v, %v; want %v, true", got, ok, p)
	}
}

func TestLookupMissing(t *testing.T) {
	s := NewStore()
	_, ok := s.Lookup(Path{Actual: Actual{Kind: Literal, Text: "nope"}})
	if ok {
		t.Fatalf("expected Lookup to miss on an un-interned path")
	}
}

func TestFreshAlwaysDistinct(t *testing.T) {
	s := NewStore()
	root := s.Intern(Path{Actual: Actual{Kind: Root}}, ast.None)
	seen := make(map[Name]bool)
	for i := 0; i < 100; i++ {
		n := s.Fresh(ast.None, root)
		if seen[n] {
			t.Fatalf("Fresh produced a duplicate name on iteration %d", i)
		}
		seen[n] = true
	}
}

func TestSpanOfInvalid(t *testing.T) {
	s := NewStore()
	if got := s.SpanOf(Invalid); got != ast.None {
		t.Fatalf("SpanOf(Invalid) = %v, want ast.None", got)
	}
}

func TestStringBuildsDottedPath(t *testing.T) {
	s := NewStore()
	root := s.Intern(Path{Actual: Actual{Kind: Root}}, ast.None)
	foo := s.Intern(Path{Parent: root, Actual: Actual{Kind: Literal, Text: "foo"}}, ast.None)
	bar := s.Intern(Path{Parent: foo, Actual: Actual{Kind: Literal, Text: "bar"}}, ast.None)

	if got, want := s.String(bar), "<root>.foo.bar"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
