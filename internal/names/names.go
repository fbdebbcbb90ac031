// Package names implements the core's name interning table (component C1
// of the compiler pipeline): an opaque identifier keyed to a path, interned
// bidirectionally so that equal paths always collapse to equal ids.
package names

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zc-lang/zc/internal/ast"
)

// Name is an opaque, interned identifier. The zero value is invalid; every
// live Name comes from Store.Intern or Store.Fresh.
type Name uint32

// Invalid is the zero Name, never returned by Intern or Fresh.
const Invalid Name = 0

// ActualKind distinguishes the four ways a path segment can be named.
type ActualKind uint8

const (
	// Root names the top-level namespace; it has no parent.
	Root ActualKind = iota
	// Literal is a user-spelled identifier.
	Literal
	// Scope is a compiler-introduced marker tied to a binding id (e.g. a
	// pattern sub-binding or a partial-evaluator placeholder).
	Scope
	// Generated is a fresh name produced by a monotonic counter at a span.
	Generated
)

func (k ActualKind) String() string {
	switch k {
	case Root:
		return "root"
	case Literal:
		return "literal"
	case Scope:
		return "scope"
	case Generated:
		return "generated"
	default:
		return "unknown"
	}
}

// Actual is one path segment: either a literal spelling, a scope marker, or
// a generator counter. Exactly one of Text/BindingID/Counter is meaningful,
// selected by Kind.
type Actual struct {
	Kind      ActualKind
	Text      string // Literal
	BindingID uint64 // Scope
	Counter   uint64 // Generated
}

func (a Actual) key() string {
	switch a.Kind {
	case Root:
		return "root"
	case Literal:
		return "lit:" + a.Text
	case Scope:
		return "scope:" + strconv.FormatUint(a.BindingID, 10)
	case Generated:
		return "gen:" + strconv.FormatUint(a.Counter, 10)
	default:
		return "?"
	}
}

func (a Actual) String() string {
	switch a.Kind {
	case Root:
		return "<root>"
	case Literal:
		return a.Text
	case Scope:
		return fmt.Sprintf("$scope%d", a.BindingID)
	case Generated:
		return fmt.Sprintf("$%d", a.Counter)
	default:
		return "?"
	}
}

// Path is the key a Name interns: an optional parent and an Actual segment.
type Path struct {
	Parent Name // Invalid if this path has no parent (a root-relative name)
	Actual Actual
}

func (p Path) key() string {
	return strconv.FormatUint(uint64(p.Parent), 10) + "/" + p.Actual.key()
}

// entry is the interned record for one Name.
type entry struct {
	path Path
	span ast.Span
}

// Store is the bidirectional name interning table. It is not safe for
// concurrent use; the core is single-threaded and synchronous (spec §5),
// and the store is threaded explicitly through each pass rather than
// shared via an ambient global.
type Store struct {
	byKey    map[string]Name
	entries  []entry // id i at entries[i-1]; Invalid (0) has no entry
	nextGen  uint64
}

// NewStore creates an empty name store.
func NewStore() *Store {
	return &Store{
		byKey:   make(map[string]Name),
		entries: make([]entry, 0, 64),
	}
}

// Intern returns the Name for path, creating it (with span) on first sight.
// Idempotent: interning the same path twice returns the same Name (P1).
func (s *Store) Intern(path Path, span ast.Span) Name {
	key := path.key()
	if n, ok := s.byKey[key]; ok {
		return n
	}
	s.entries = append(s.entries, entry{path: path, span: span})
	n := Name(len(s.entries))
	s.byKey[key] = n
	return n
}

// Fresh mints a new, never-before-seen name anchored at span, using the
// generator-counter Actual kind. Distinct calls always yield distinct
// names, even at the same span and parent.
func (s *Store) Fresh(span ast.Span, parent Name) Name {
	for {
		s.nextGen++
		path := Path{Parent: parent, Actual: Actual{Kind: Generated, Counter: s.nextGen}}
		key := path.key()
		if _, exists := s.byKey[key]; exists {
			continue // pathological counter collision after a manual Intern; retry
		}
		s.entries = append(s.entries, entry{path: path, span: span})
		n := Name(len(s.entries))
		s.byKey[key] = n
		return n
	}
}

// Lookup finds an already-interned name for path without creating one.
func (s *Store) Lookup(path Path) (Name, bool) {
	n, ok := s.byKey[path.key()]
	return n, ok
}

// PathOf returns the path a Name was interned with.
func (s *Store) PathOf(n Name) (Path, bool) {
	if n == Invalid || int(n) > len(s.entries) {
		return Path{}, false
	}
	return s.entries[n-1].path, true
}

// SpanOf returns the source span a Name was interned with.
func (s *Store) SpanOf(n Name) ast.Span {
	if n == Invalid || int(n) > len(s.entries) {
		return ast.None
	}
	return s.entries[n-1].span
}

// String renders a Name as a dotted path, following parents to the root,
// for debug dumps and pretty-printers.
func (s *Store) String(n Name) string {
	var parts []string
	cur := n
	for cur != Invalid {
		p, ok := s.PathOf(cur)
		if !ok {
			break
		}
		parts = append([]string{p.Actual.String()}, parts...)
		cur = p.Parent
	}
	return strings.Join(parts, ".")
}

// Len reports how many names have been interned, for diagnostics/metrics.
func (s *Store) Len() int {
	return len(s.entries)
}
