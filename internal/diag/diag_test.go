package diag

import (
	"bytes"
	"testing"

	"github.com/zc-lang/zc/internal/ast"
)

func TestSinkCounts(t *testing.T) {
	s := NewSink()
	s.Add(&Report{Severity: SeverityError, Code: TC001})
	s.Add(&Report{Severity: SeverityWarning, Code: "W1"})
	s.Add(&Report{Severity: SeverityError, Code: TC002})

	if got := s.ErrorCount(); got != 2 {
		t.Fatalf("ErrorCount() = %d, want 2", got)
	}
	if got := s.WarningCount(); got != 1 {
		t.Fatalf("WarningCount() = %d, want 1", got)
	}
	if got := len(s.Reports()); got != 3 {
		t.Fatalf("Reports() len = %d, want 3", got)
	}
}

func TestWrapAndAsReport(t *testing.T) {
	r := &Report{Code: TC001, Message: "boom"}
	err := Wrap(r)
	got, ok := AsReport(err)
	if !ok || got != r {
		t.Fatalf("AsReport round trip failed: %v, %v", got, ok)
	}
}

func TestAsReportMisses(t *testing.T) {
	_, ok := AsReport(nil)
	if ok {
		t.Fatalf("AsReport(nil) should miss")
	}
}

func TestPrinterDoesNotPanicOnPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Print(&Report{
		Severity: SeverityError,
		Code:     TC001,
		Title:    "inequal types",
		Message:  "cannot unify 0..5 with 0..10",
		Span:     &ast.Span{Start: ast.Pos{File: "a.z", Line: 1, Column: 1}},
		Notes:    []string{"try widening the annotation"},
	})
	if buf.Len() == 0 {
		t.Fatalf("expected Print to write output")
	}
}

func TestCaretWidth(t *testing.T) {
	got := Caret("abcdef", 2, 4)
	want := "  ^^"
	if got != want {
		t.Fatalf("Caret() = %q, want %q", got, want)
	}
}
