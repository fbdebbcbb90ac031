package types

import (
	"fmt"

	"github.com/zc-lang/zc/internal/names"
)

// Substitution maps unification variable ids to (instantiation map, high
// type) pairs, per spec §4.3: "substitution: map from unification
// variable -> (instantiation map, high type)".
type Substitution map[uint64]Binding

// Binding is one solved unification variable.
type Binding struct {
	Inst map[names.Name]High // delayed instantiation map carried with the binding
	Type High
}

// Delayed is a range-subtype obligation saved for the post-solve numeric
// check phase (spec §4.3 "delayed" channel).
type Delayed struct {
	Kind  DelayedKind
	Big   Range // Kind == Subset
	Small Range // Kind == Subset
	Unit  Range // Kind == UnitOrEmpty
}

// DelayedKind discriminates Delayed obligations.
type DelayedKind uint8

const (
	Subset DelayedKind = iota
	UnitOrEmpty
)

// OccursError is returned when a variable's proposed substitution would
// contain itself (spec P4, the occurs check).
type OccursError struct {
	Var uint64
	In  High
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed: ?v%d occurs in %s", e.Var, e.In)
}

// MismatchError is returned when two ground shapes cannot be unified.
type MismatchError struct {
	T, U High
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.T, e.U)
}

// Unifier carries the evolving substitution and delayed-constraint list
// across a sequence of Unify calls within one solver run.
type Unifier struct {
	Sub     Substitution
	Delayed []Delayed
}

// NewUnifier creates an empty unifier.
func NewUnifier() *Unifier {
	return &Unifier{Sub: make(Substitution)}
}

// Apply follows the substitution chain for t, resolving bound variables
// and (one layer of) delayed instantiation, to a fixed point.
func (u *Unifier) Apply(t High) High {
	for {
		switch v := t.(type) {
		case UVar:
			b, ok := u.Sub[v.ID]
			if !ok {
				return t
			}
			if len(b.Inst) > 0 {
				t = Instantiated{Type: b.Type, Template: b.Inst}
				continue
			}
			t = b.Type
		case Instantiated:
			t = v.Resolve()
		default:
			return t
		}
	}
}

// Unify attempts to unify t and un, mutating the Unifier's substitution in
// place. It takes no separate instantiation maps: a delayed instantiation
// arrives as an Instantiated value, which Apply resolves on each side first.
// Left-hand chains are preferred when both sides are variables with
// substitutions (deterministic tie-break, spec §4.3).
func (u *Unifier) Unify(t, un High) error {
	t = u.Apply(t)
	un = u.Apply(un)

	if IsInvalid(t) || IsInvalid(un) {
		return nil // Invalid absorbs anything
	}

	tv, tIsVar := t.(UVar)
	uv, uIsVar := un.(UVar)

	if tIsVar && uIsVar && tv.ID == uv.ID {
		return nil
	}

	if tIsVar {
		return u.bindVar(tv, un)
	}
	if uIsVar {
		return u.bindVar(uv, t)
	}

	switch t := t.(type) {
	case Number:
		if r, ok := un.(Range); ok {
			_ = r // Number <= range is one-sided; nothing to record structurally
			return nil
		}
		if _, ok := un.(Number); ok {
			return nil
		}
		return &MismatchError{T: t, U: un}

	case Range:
		if un2, ok := un.(Number); ok {
			_ = un2
			return nil
		}
		r2, ok := un.(Range)
		if !ok {
			return &MismatchError{T: t, U: un}
		}
		// Range-to-range goes through the delayed channel: structurally
		// unifying two ranges during the main fixed point only succeeds
		// outright when they are literally equal; otherwise a subtype
		// obligation is recorded for the post-solve numeric phase.
		if t.Lo == r2.Lo && t.Hi == r2.Hi {
			return nil
		}
		u.Delayed = append(u.Delayed, Delayed{Kind: Subset, Big: t, Small: r2})
		u.Delayed = append(u.Delayed, Delayed{Kind: Subset, Big: r2, Small: t})
		return nil

	case Function:
		f2, ok := un.(Function)
		if !ok {
			return &MismatchError{T: t, U: un}
		}
		if len(t.Params) != len(f2.Params) || len(t.Returns) != len(f2.Returns) {
			return &MismatchError{T: t, U: un}
		}
		for i := range t.Params {
			if err := u.Unify(t.Params[i], f2.Params[i]); err != nil {
				return err
			}
		}
		for i := range t.Returns {
			if err := u.Unify(t.Returns[i], f2.Returns[i]); err != nil {
				return err
			}
		}
		return nil

	case Product:
		p2, ok := un.(Product)
		if !ok {
			return &MismatchError{T: t, U: un}
		}
		if len(t.Elems) != len(p2.Elems) {
			return &MismatchError{T: t, U: un}
		}
		for i := range t.Elems {
			if err := u.Unify(t.Elems[i], p2.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case Record:
		r2, ok := un.(Record)
		if !ok {
			return &MismatchError{T: t, U: un}
		}
		if len(t.Fields) != len(r2.Fields) {
			return &MismatchError{T: t, U: un}
		}
		for _, f := range t.Fields {
			other, ok := r2.FieldType(f.Label)
			if !ok {
				return &MismatchError{T: t, U: un}
			}
			if err := u.Unify(f.Type, other); err != nil {
				return err
			}
		}
		return nil

	case Named:
		n2, ok := un.(Named)
		if !ok || n2.Name != t.Name || len(n2.Args) != len(t.Args) {
			return &MismatchError{T: t, U: un}
		}
		for i := range t.Args {
			if err := u.Unify(t.Args[i], n2.Args[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		return &MismatchError{T: t, U: un}
	}
}

// bindVar binds unification variable v to value, after an occurs check.
// A var with an existing substitution is followed and re-unified rather
// than rebound (Apply already does this before bindVar is reached in
// practice, but bindVar re-checks for direct callers).
func (u *Unifier) bindVar(v UVar, value High) error {
	if b, ok := u.Sub[v.ID]; ok {
		resolved := b.Type
		if len(b.Inst) > 0 {
			resolved = Instantiated{Type: b.Type, Template: b.Inst}.Resolve()
		}
		return u.Unify(resolved, value)
	}
	if !v.Mutable {
		// Immutable (rigid/skolem) variable: if the other side carries an
		// active instantiation, defer rather than commit (spec §4.3).
		if hasInstantiation(value) {
			u.Delayed = append(u.Delayed, Delayed{}) // placeholder work-list marker
			return nil
		}
	}
	if Occurs(v.ID, value) {
		u.Sub[v.ID] = Binding{Type: Invalid{Reason: "occurs check"}}
		return &OccursError{Var: v.ID, In: value}
	}
	u.Sub[v.ID] = Binding{Type: value}
	return nil
}

func hasInstantiation(t High) bool {
	_, ok := t.(Instantiated)
	return ok
}

// Occurs reports whether unification variable id occurs structurally
// within t (spec P4).
func Occurs(id uint64, t High) bool {
	switch t := t.(type) {
	case UVar:
		return t.ID == id
	case Function:
		for _, p := range t.Params {
			if Occurs(id, p) {
				return true
			}
		}
		for _, r := range t.Returns {
			if Occurs(id, r) {
				return true
			}
		}
		return false
	case Product:
		for _, e := range t.Elems {
			if Occurs(id, e) {
				return true
			}
		}
		return false
	case Record:
		for _, f := range t.Fields {
			if Occurs(id, f.Type) {
				return true
			}
		}
		return false
	case Named:
		for _, a := range t.Args {
			if Occurs(id, a) {
				return true
			}
		}
		return false
	case Instantiated:
		return Occurs(id, t.Resolve())
	default:
		return false
	}
}
