// Package types implements the core's two type representations (component
// C1 of the pipeline): high types, used during inference and carrying
// unification variables, and low types, the post-solve, structurally
// interned form every other component consumes.
//
// Grounded on the teacher's internal/types package (TVar/TCon/TFunc/
// TRecord2/Row family in types.go, types_v2.go, row_unification.go),
// generalized from AILANG's value-level type system (type classes, effect
// rows) to the spec's range-refined integers and trait-like existential
// records.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zc-lang/zc/internal/names"
)

// High is a type as seen during inference: it may still contain
// unification variables and delayed instantiations.
type High interface {
	fmt.Stringer
	highType()
}

// Range is the range type [Lo, Hi). Lo == Hi denotes the empty range (no
// literal ever satisfies it).
type Range struct {
	Lo, Hi int64
}

func (Range) highType() {}
func (r Range) String() string { return fmt.Sprintf("%d..%d", r.Lo, r.Hi) }

// Empty reports whether the range contains no values.
func (r Range) Empty() bool { return r.Lo >= r.Hi }

// Contains reports whether v lies within the half-open range.
func (r Range) Contains(v int64) bool { return v >= r.Lo && v < r.Hi }

// SubsetOf reports whether r is a (non-strict) subset of other — every
// value satisfying r also satisfies other.
func (r Range) SubsetOf(other Range) bool {
	if r.Empty() {
		return true
	}
	return r.Lo >= other.Lo && r.Hi <= other.Hi
}

// Function is a (possibly multi-arg, multi-return) function type.
type Function struct {
	Params  []High
	Returns []High
}

func (Function) highType() {}
func (f Function) String() string {
	ps := joinStrings(f.Params)
	rs := joinStrings(f.Returns)
	return fmt.Sprintf("(%s) -> (%s)", ps, rs)
}

// Product is a fixed-arity tuple type (T1, ..., Tn).
type Product struct {
	Elems []High
}

func (Product) highType() {}
func (p Product) String() string { return fmt.Sprintf("(%s)", joinStrings(p.Elems)) }

// Field is one field of a trait-like existential record: a label plus the
// type that witnesses it.
type Field struct {
	Label string
	Type  High
}

// Record is a trait-like existential record type: a fixed set of named
// fields, each independently typed. The teacher's row-polymorphic
// TRecord2/dictionaries machinery is the closest analogue — here records
// are always closed (no row variable) because the spec does not call for
// row polymorphism, only for field-wise coercion between records.
type Record struct {
	Fields []Field
}

func (Record) highType() {}
func (r Record) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.Label + ": " + f.Type.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FieldType looks up a field by label.
func (r Record) FieldType(label string) (High, bool) {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Type, true
		}
	}
	return nil, false
}

// Named is a reference to a user-defined type by name.
type Named struct {
	Name names.Name
	Args []High // instantiation arguments, if the named type is parametric
}

func (Named) highType() {}
func (n Named) String() string {
	if len(n.Args) == 0 {
		return fmt.Sprintf("#%d", n.Name)
	}
	return fmt.Sprintf("#%d<%s>", n.Name, joinStrings(n.Args))
}

// Number is an unsolved numeric literal's type: it has not yet been
// narrowed to a concrete range.
type Number struct{}

func (Number) highType() {}
func (Number) String() string { return "Number" }

// UVar is a unification variable, identified by a monotonically
// increasing id scoped to one solver run. Unification variables never
// escape the solver (spec §3 invariant).
type UVar struct {
	ID      uint64
	Mutable bool // false for rigid/skolem variables introduced by generalization
}

func (UVar) highType() {}
func (v UVar) String() string { return fmt.Sprintf("?v%d", v.ID) }

// Instantiated wraps a type with a pending substitution map from template
// parameter names to concrete types, applied lazily.
type Instantiated struct {
	Type     High
	Template map[names.Name]High
}

func (Instantiated) highType() {}
func (i Instantiated) String() string {
	keys := make([]string, 0, len(i.Template))
	for k := range i.Template {
		keys = append(keys, fmt.Sprintf("%d", k))
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s[%s]", i.Type, strings.Join(keys, ","))
}

// Resolve collapses one layer of delayed instantiation by substituting
// template parameters into the wrapped type. It does not recurse into
// further Instantiated layers; callers (the unifier, the lowerer) apply it
// repeatedly until a fixed point.
func (i Instantiated) Resolve() High {
	return substituteNames(i.Type, i.Template)
}

func substituteNames(t High, m map[names.Name]High) High {
	switch t := t.(type) {
	case Named:
		if len(t.Args) == 0 {
			if r, ok := m[t.Name]; ok {
				return r
			}
		}
		args := make([]High, len(t.Args))
		for i, a := range t.Args {
			args[i] = substituteNames(a, m)
		}
		return Named{Name: t.Name, Args: args}
	case Function:
		return Function{Params: substAll(t.Params, m), Returns: substAll(t.Returns, m)}
	case Product:
		return Product{Elems: substAll(t.Elems, m)}
	case Record:
		fs := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			fs[i] = Field{Label: f.Label, Type: substituteNames(f.Type, m)}
		}
		return Record{Fields: fs}
	case Instantiated:
		merged := make(map[names.Name]High, len(m)+len(t.Template))
		for k, v := range t.Template {
			merged[k] = v
		}
		for k, v := range m {
			merged[k] = v
		}
		return Instantiated{Type: t.Type, Template: merged}
	default:
		return t
	}
}

func substAll(ts []High, m map[names.Name]High) []High {
	out := make([]High, len(ts))
	for i, t := range ts {
		out[i] = substituteNames(t, m)
	}
	return out
}

// Invalid marks a type that could not be determined; it absorbs any
// unification or coercion attempt (spec §4.3: "Invalid absorbs anything").
type Invalid struct {
	Reason string
}

func (Invalid) highType() {}
func (i Invalid) String() string {
	if i.Reason == "" {
		return "<invalid>"
	}
	return "<invalid: " + i.Reason + ">"
}

func joinStrings(ts []High) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// IsInvalid reports whether t is the Invalid marker.
func IsInvalid(t High) bool {
	_, ok := t.(Invalid)
	return ok
}
