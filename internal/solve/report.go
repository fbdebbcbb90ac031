package solve

import (
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/constraint"
	"github.com/zc-lang/zc/internal/diag"
)

func typeErrorReport(at ast.Span, err error) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.TC001,
		Kind:     diag.KindTypeError,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "inequal types",
		Message:  err.Error(),
		Span:     &at,
	}
}

func coercionFailureReport(at ast.Span, into, from interface{ String() string }) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.SLV002,
		Kind:     diag.KindCoercionFailure,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "coercion failure",
		Message:  fmt.Sprintf("cannot use a value of type %s where %s is expected", from.String(), into.String()),
		Span:     &at,
	}
}

func missingFieldReport(at ast.Span, label string) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.TC003,
		Kind:     diag.KindTypeError,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "missing field",
		Message:  fmt.Sprintf("no field named %q on this record type", label),
		Span:     &at,
	}
}

func ambiguityReport(c constraint.Constraint) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.SLV001,
		Kind:     diag.KindAmbiguity,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "ambiguous constraint",
		Message:  "the solver reached a fixed point without resolving this constraint",
		Span:     &c.At,
	}
}

func numericErrorReport(err error) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.TC004,
		Kind:     diag.KindTypeError,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "non-numeric literal type",
		Message:  err.Error(),
	}
}

func delayedErrorReport(err error) *diag.Report {
	return &diag.Report{
		Schema:   "zc.diag/v1",
		Code:     diag.TC004,
		Kind:     diag.KindOutOfRange,
		Severity: diag.SeverityError,
		Phase:    "solve",
		Title:    "range obligation failed",
		Message:  err.Error(),
	}
}
