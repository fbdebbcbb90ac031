// Package constraint implements the constraint generator (component C2):
// it walks a typed surface tree and emits the flat list of typing and
// coercion constraints the solver (package solve) will process.
//
// Grounded on the teacher's addConstraint/TypeConstraint accumulation in
// internal/types/inference.go, generalized from AILANG's emit-during-
// algorithm-W style (constraints are solved incrementally as they are
// produced) to the spec's fully pre-generated flat list, solved afterward
// by a separate worklist (package solve).
package constraint

import (
	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// CoercionID names a coercion site whose resolved state the solver
// records (spec §4.2 Assignable{..., id, ...}). Defined in package types
// (see types.CoercionID) so the typed surface tree can carry these ids
// without importing this package; aliased here so existing call sites
// in this package keep spelling it constraint.CoercionID.
type CoercionID = types.CoercionID

// Kind discriminates the constraint union.
type Kind uint8

const (
	KindNumeric Kind = iota
	KindTypeNumeric
	KindAssignable
	KindEqual
	KindInstantiated
	KindField
	KindAlias
)

// Constraint is one emitted typing or coercion obligation.
type Constraint struct {
	Kind Kind
	At   ast.Span

	// KindNumeric, KindTypeNumeric
	Numeric types.High

	// KindAssignable
	CoercionID CoercionID
	Into, From types.High

	// KindEqual
	T, U types.High

	// KindInstantiated
	InstTarget   types.High
	InstTemplate *typedsurface.Scheme

	// KindField
	FieldRecord types.High
	FieldLabel  string
	FieldType   types.High

	// KindAlias
	AliasName names.Name
	AliasType types.High
}
