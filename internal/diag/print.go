package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/width"
)

// Printer renders Reports to a terminal, colorizing phase/severity the way
// the teacher's cmd/ailang main.go does (color.New(...).SprintFunc()),
// falling back to plain text when the writer is not a tty (mattn/go-isatty,
// already an indirect dependency of fatih/color and a direct one of the
// pack's funvibe-funxy repo).
type Printer struct {
	w      io.Writer
	color  bool
	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	bold   func(a ...interface{}) string
}

// NewPrinter creates a Printer writing to w, auto-detecting color support.
func NewPrinter(w io.Writer) *Printer {
	useColor := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		w:      w,
		color:  useColor,
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
}

// Print renders one report as a human-readable, possibly colorized block.
func (p *Printer) Print(r *Report) {
	sevColor := p.red
	if r.Severity == SeverityWarning {
		sevColor = p.yellow
	}
	label := string(r.Severity)
	if p.color {
		label = sevColor(label)
	}
	fmt.Fprintf(p.w, "%s[%s]: %s\n", label, r.Code, r.Title)
	if r.Span != nil {
		loc := r.Span.Start.String()
		if p.color {
			loc = p.cyan(loc)
		}
		fmt.Fprintf(p.w, "  --> %s\n", loc)
	}
	if r.Message != "" {
		fmt.Fprintf(p.w, "  %s\n", r.Message)
	}
	for _, l := range r.Labels {
		fmt.Fprintf(p.w, "  note: %s: %s\n", l.Span.Start, l.Message)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(p.w, "  = note: %s\n", n)
	}
}

// PrintAll renders every report in a sink, in order.
func (p *Printer) PrintAll(s Sink) {
	for _, r := range s.Reports() {
		p.Print(r)
	}
}

// Caret renders a caret line under `line` pointing at the column range
// [start,end), counting display width rather than bytes so East Asian
// wide runes still line up; every other rune, combining marks included,
// counts as one column (golang.org/x/text/width, the
// teacher's dependency used here for Unicode-aware rendering rather than
// a naive byte-offset caret).
func Caret(line string, startCol, endCol int) string {
	if endCol <= startCol {
		endCol = startCol + 1
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if col >= endCol {
			break
		}
		w := 1
		if width.LookupRune(r).Kind() == width.EastAsianWide {
			w = 2
		}
		if col < startCol {
			b.WriteByte(' ')
			if w == 2 {
				b.WriteByte(' ')
			}
		} else {
			b.WriteByte('^')
			if w == 2 {
				b.WriteByte('^')
			}
		}
		col += w
	}
	return b.String()
}
