// Package diag implements the core's diagnostic sink (spec §6 "Messages"):
// a structured report type that travels through every pass instead of
// bare errors, plus a sink interface the core appends to. The core never
// writes to stdout/stderr itself (spec §6).
//
// Grounded on the teacher's internal/errors package (Report/ReportError,
// codes.go's phase-prefixed code taxonomy, json_encoder.go's deterministic
// JSON), generalized from AILANG's parser/loader/runtime phases to the
// spec's error kinds (§7).
package diag

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
)

// Kind is one of the error kinds surfaced by the core (spec §7).
type Kind string

const (
	KindTypeError         Kind = "TypeError"
	KindAmbiguity         Kind = "Ambiguity"
	KindCoercionFailure   Kind = "CoercionFailure"
	KindOutOfRange        Kind = "OutOfRange"
	KindHolePresent       Kind = "HolePresent"
	KindNameError         Kind = "NameError"
	KindInternalAssertion Kind = "InternalAssertion"
)

// Severity distinguishes errors from warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Label attaches a secondary span to a report (e.g. "first definition
// here" alongside the primary "duplicate definition" span).
type Label struct {
	Span    ast.Span
	Message string
}

// Report is the canonical structured diagnostic the core produces. Every
// pass appends Reports to a Sink rather than returning bare errors deep in
// the call stack (spec §7's soft-failing propagation policy).
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"severity"`
	Phase    string         `json:"phase"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Span     *ast.Span      `json:"span,omitempty"`
	Labels   []Label        `json:"labels,omitempty"`
	Notes    []string       `json:"notes,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report as a Go error so it can travel through
// ordinary error-returning code and be recovered with errors.As.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a *Report from an error chain, if any link is a
// *ReportError.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps r as an error for callers that must return `error`.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the report as deterministic JSON, for the `check --json`
// CLI flag (spec §6). The LSP server does not use it: it sends its own
// Diagnostic objects.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Internal builds an InternalAssertion report: a bug, not a user error.
// The driver aborts compilation on these (spec §7).
func Internal(phase, code, title string, span ast.Span) *Report {
	return &Report{
		Schema:   "zc.diag/v1",
		Code:     code,
		Kind:     KindInternalAssertion,
		Severity: SeverityError,
		Phase:    phase,
		Title:    title,
		Message:  fmt.Sprintf("internal assertion failed in %s: %s", phase, title),
		Span:     &span,
	}
}
