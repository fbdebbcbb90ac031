// Package ast defines the minimal source-location contract the core shares
// with its collaborators. Lexing, parsing and the full surface tree belong
// to the front-end (out of the core's scope); the core only needs to carry
// positions through to diagnostics and to the Name store.
package ast

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int // byte offset, used for stable-id and LSP range math
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range [Start, End) in a source file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	if s.Start.File == s.End.File {
		return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Contains reports whether p falls within the half-open span.
func (s Span) Contains(p Pos) bool {
	if p.File != s.Start.File {
		return false
	}
	return p.Offset >= s.Start.Offset && p.Offset < s.End.Offset
}

// None is the zero Span, used where no source position is available
// (synthesized names, compiler-generated joins).
var None = Span{}
