package types

// NumericObligation is one `Numeric`/`TypeNumeric` constraint retained for
// the post-solve numeric check phase (spec §4.3 "Numeric resolution").
type NumericObligation struct {
	Type High // the type that must reduce to a range
}

// NumericError reports that a Numeric obligation resolved to a
// non-numeric shape.
type NumericError struct {
	Resolved High
}

func (e *NumericError) Error() string {
	return "numeric literal's type resolved to non-numeric shape " + e.Resolved.String()
}

// ResolveNumeric runs the post-solve numeric resolution phase: for each
// obligation, try to force its type into a range; if it is still a free
// variable, equate it to Number (the spec's deliberately un-narrowed
// numeric-literal type); if it resolved to something else, report an
// error.
//
// Grounded on the teacher's defaultAmbiguities (typechecker_defaulting.go):
// the same "if nothing pins the variable down, pick the default" shape,
// generalized from AILANG's class-based numeric default (Int/Float) to
// the spec's single Number default.
func (u *Unifier) ResolveNumeric(obligations []NumericObligation) []error {
	var errs []error
	for _, ob := range obligations {
		resolved := u.Apply(ob.Type)
		switch resolved := resolved.(type) {
		case Range, Number:
			_ = resolved
			continue
		case UVar:
			if err := u.bindVar(resolved, Number{}); err != nil {
				errs = append(errs, err)
			}
		case Invalid:
			continue
		default:
			errs = append(errs, &NumericError{Resolved: resolved})
		}
	}
	return errs
}

// CheckDelayed drains the unifier's delayed range-subtype and
// unit-or-empty obligations, the ones Unify/Coerce enqueued rather than
// deciding outright. Returns one error per obligation that does not hold.
func CheckDelayed(delayed []Delayed) []error {
	var errs []error
	for _, d := range delayed {
		switch d.Kind {
		case Subset:
			if !d.Small.SubsetOf(d.Big) {
				errs = append(errs, &RangeSubtypeError{Big: d.Big, Small: d.Small})
			}
		case UnitOrEmpty:
			if d.Unit.Hi-d.Unit.Lo > 1 {
				errs = append(errs, &UnitRangeError{Range: d.Unit})
			}
		}
	}
	return errs
}

// RangeSubtypeError reports that Small is not a subset of Big.
type RangeSubtypeError struct {
	Big, Small Range
}

func (e *RangeSubtypeError) Error() string {
	return e.Small.String() + " is not a subset of " + e.Big.String()
}

// UnitRangeError reports that a range coerced to a unit type has more
// than one inhabitant.
type UnitRangeError struct {
	Range Range
}

func (e *UnitRangeError) Error() string {
	return e.Range.String() + " has more than one value; cannot coerce to unit"
}

// CheckLiteral validates a literal value against a range type (spec
// OutOfRange, §7 / §8 boundary case "range with lo==hi contains no
// values").
func CheckLiteral(r Range, v int64) error {
	if !r.Contains(v) {
		return &OutOfRangeError{Range: r, Value: v}
	}
	return nil
}

// OutOfRangeError reports a literal that does not satisfy its range type.
type OutOfRangeError struct {
	Range Range
	Value int64
}

func (e *OutOfRangeError) Error() string {
	return "literal out of range"
}
