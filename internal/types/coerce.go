package types

// CoercionID names a coercion site whose resolved state the solver
// records (spec §4.2 Assignable{..., id, ...}). It lives here, rather
// than in the constraint package that mints it, so that the typed
// surface tree (which must not import constraint, to avoid a cycle)
// can still carry the ids lowering needs to look the state back up.
type CoercionID uint64

// CoercionState is the recorded outcome of a coercion site, per spec §4.3.
type CoercionState uint8

const (
	// CoercionEqual means no conversion is needed; the site is erased
	// during lowering.
	CoercionEqual CoercionState = iota
	// CoercionCoercible means a non-trivial implicit conversion applies;
	// lowering emits an explicit Coerce statement.
	CoercionCoercible
	// CoercionInvalid means the coercion failed; lowering produces an
	// Invalid expression.
	CoercionInvalid
)

// CoerceResult is the outcome of one Coerce call: the recorded state, plus
// any delayed range-subtype obligation it produced.
type CoerceResult struct {
	State   CoercionState
	Delayed []Delayed
}

// Coerce determines whether a value of type `from` can be used where
// `into` is expected, per spec §4.3's flow judgement. It shares the
// unifier's substitution for the variable branches (which behave like
// unification but additionally mark the degenerate case Equal).
func (u *Unifier) Coerce(into, from High) CoerceResult {
	into = u.Apply(into)
	from = u.Apply(from)

	if IsInvalid(into) || IsInvalid(from) {
		return CoerceResult{State: CoercionInvalid}
	}

	if iv, ok := into.(UVar); ok {
		if err := u.bindVar(iv, from); err != nil {
			return CoerceResult{State: CoercionInvalid}
		}
		return CoerceResult{State: CoercionEqual}
	}
	if fv, ok := from.(UVar); ok {
		if err := u.bindVar(fv, into); err != nil {
			return CoerceResult{State: CoercionInvalid}
		}
		return CoerceResult{State: CoercionEqual}
	}

	switch into := into.(type) {
	case Record:
		fromRec, ok := from.(Record)
		if !ok {
			return CoerceResult{State: CoercionInvalid}
		}
		// Trait-like record to record: narrow-to-wide coerces per field.
		// `into` may name a subset of `from`'s fields (narrowing): every
		// field `into` requires must be coercible from the corresponding
		// field in `from`.
		result := CoerceResult{State: CoercionEqual}
		for _, f := range into.Fields {
			ft, ok := fromRec.FieldType(f.Label)
			if !ok {
				return CoerceResult{State: CoercionInvalid}
			}
			sub := u.Coerce(f.Type, ft)
			if sub.State == CoercionInvalid {
				return CoerceResult{State: CoercionInvalid}
			}
			if sub.State == CoercionCoercible {
				result.State = CoercionCoercible
			}
			result.Delayed = append(result.Delayed, sub.Delayed...)
		}
		return result

	case Range:
		switch from := from.(type) {
		case Range:
			if into.Lo == from.Lo && into.Hi == from.Hi {
				// Coercion from a range into itself is marked Equal and
				// erased (spec §8 boundary case).
				return CoerceResult{State: CoercionEqual}
			}
			d := Delayed{Kind: Subset, Big: into, Small: from}
			return CoerceResult{State: CoercionCoercible, Delayed: []Delayed{d}}
		case Number:
			return CoerceResult{State: CoercionCoercible}
		default:
			return CoerceResult{State: CoercionInvalid}
		}

	case Product:
		return u.coerceEqualOrFail(into, from)
	case Function:
		return u.coerceEqualOrFail(into, from)
	case Named:
		return u.coerceEqualOrFail(into, from)
	case Number:
		return u.coerceEqualOrFail(into, from)
	default:
		return CoerceResult{State: CoercionInvalid}
	}
}

// coerceEqualOrFail handles the "equal base cases mark Equal" rule: types
// with no coercion rule of their own succeed only when structurally equal.
func (u *Unifier) coerceEqualOrFail(into, from High) CoerceResult {
	save := cloneSub(u.Sub)
	if err := u.Unify(into, from); err != nil {
		u.Sub = save
		return CoerceResult{State: CoercionInvalid}
	}
	return CoerceResult{State: CoercionEqual}
}

func cloneSub(s Substitution) Substitution {
	out := make(Substitution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CoerceUnit handles "Range into unit: mark Coercible; enqueue
// UnitOrEmpty(range)" — a range coerces into the unit type `0..1` (or any
// single-point range) when it is provably a singleton or empty.
func (u *Unifier) CoerceUnit(unit, from Range) CoerceResult {
	return CoerceResult{
		State:   CoercionCoercible,
		Delayed: []Delayed{{Kind: UnitOrEmpty, Unit: from}},
	}
}
