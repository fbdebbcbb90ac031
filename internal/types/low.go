package types

import (
	"fmt"
	"strings"

	"github.com/zc-lang/zc/internal/names"
)

// TypeId is a handle into a Store's interned low types. Low types are
// structurally interned, so TypeId equality is type equality (spec P2).
type TypeId uint32

// InvalidTypeId is the reserved id for the post-solve Invalid marker.
const InvalidTypeId TypeId = 0

// Shape is a low, post-solve type: a range, a function, a product, a
// record, a named reference, or the invalid marker. Shapes never contain
// unification variables (spec §3 invariant: "after C3 every high type
// reduces to a ground form or is marked Invalid").
type Shape struct {
	Kind     ShapeKind
	Range    Range        // Kind == ShapeRange
	Params   []TypeId     // Kind == ShapeFunction
	Returns  []TypeId     // Kind == ShapeFunction
	Elems    []TypeId     // Kind == ShapeProduct
	Fields   []LowField   // Kind == ShapeRecord
	Named    names.Name   // Kind == ShapeNamed
	NamedArg []TypeId     // Kind == ShapeNamed
}

// LowField is one field of an interned record shape.
type LowField struct {
	Label string
	Type  TypeId
}

// ShapeKind discriminates the Shape union.
type ShapeKind uint8

const (
	ShapeInvalid ShapeKind = iota
	ShapeRange
	ShapeFunction
	ShapeProduct
	ShapeRecord
	ShapeNamed
)

func (s Shape) key() string {
	var b strings.Builder
	switch s.Kind {
	case ShapeInvalid:
		b.WriteString("invalid")
	case ShapeRange:
		fmt.Fprintf(&b, "range:%d:%d", s.Range.Lo, s.Range.Hi)
	case ShapeFunction:
		b.WriteString("fn:")
		writeIds(&b, s.Params)
		b.WriteString("->")
		writeIds(&b, s.Returns)
	case ShapeProduct:
		b.WriteString("prod:")
		writeIds(&b, s.Elems)
	case ShapeRecord:
		b.WriteString("rec:")
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "%s=%d,", f.Label, f.Type)
		}
	case ShapeNamed:
		fmt.Fprintf(&b, "named:%d:", s.Named)
		writeIds(&b, s.NamedArg)
	}
	return b.String()
}

func writeIds(b *strings.Builder, ids []TypeId) {
	for _, id := range ids {
		fmt.Fprintf(b, "%d,", id)
	}
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapeInvalid:
		return "<invalid>"
	case ShapeRange:
		return s.Range.String()
	case ShapeFunction:
		return fmt.Sprintf("(%s) -> (%s)", idList(s.Params), idList(s.Returns))
	case ShapeProduct:
		return fmt.Sprintf("(%s)", idList(s.Elems))
	case ShapeRecord:
		parts := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			parts[i] = fmt.Sprintf("%s: #%d", f.Label, f.Type)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ShapeNamed:
		if len(s.NamedArg) == 0 {
			return fmt.Sprintf("#name%d", s.Named)
		}
		return fmt.Sprintf("#name%d<%s>", s.Named, idList(s.NamedArg))
	default:
		return "?"
	}
}

func idList(ids []TypeId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}

// Store interns low type Shapes by structural equality (spec P2) and
// names (see the names package) share the same "index table, no removal"
// design per the design notes (§9: cyclic structures as index-based
// tables, not cyclic ownership).
type Store struct {
	byKey  map[string]TypeId
	shapes []Shape // index 0 is InvalidTypeId
}

// NewStore creates a Store pre-seeded with the Invalid shape at id 0.
func NewStore() *Store {
	s := &Store{byKey: make(map[string]TypeId), shapes: make([]Shape, 1)}
	s.shapes[0] = Shape{Kind: ShapeInvalid}
	s.byKey[s.shapes[0].key()] = InvalidTypeId
	return s
}

// Intern returns the TypeId for shape, creating it on first sight.
func (s *Store) Intern(shape Shape) TypeId {
	key := shape.key()
	if id, ok := s.byKey[key]; ok {
		return id
	}
	id := TypeId(len(s.shapes))
	s.shapes = append(s.shapes, shape)
	s.byKey[key] = id
	return id
}

// ShapeOf returns the Shape a TypeId was interned with.
func (s *Store) ShapeOf(id TypeId) Shape {
	if int(id) >= len(s.shapes) {
		return Shape{Kind: ShapeInvalid}
	}
	return s.shapes[id]
}

// Len reports how many distinct shapes have been interned.
func (s *Store) Len() int { return len(s.shapes) }
