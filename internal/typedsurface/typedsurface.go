// Package typedsurface defines the input contract the core consumes from
// its front-end collaborator (spec §6: "Source -> TypedTree: the
// front-end supplies a typed tree plus a type context"). Lexing, parsing
// and name resolution are out of the core's scope (spec §1); this package
// only fixes the shape of their combined output, the typed surface tree
// the constraint generator (C2) walks.
//
// Grounded on the teacher's internal/typedast package (TypedVar/TypedLit/
// TypedLambda/TypedLet/TypedApp/...), generalized from AILANG's
// already-monomorphic typed tree to the spec's still-polymorphic
// surface tree (Scheme-carrying Var nodes are genuine template use-sites
// here, not already-resolved monotypes).
package typedsurface

import (
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/types"
)

// Node is the base interface for every typed surface node.
type Node interface {
	ID() uint64
	Span() ast.Span
	node()
}

// Base carries the fields every Node has.
type Base struct {
	NodeID   uint64
	NodeSpan ast.Span

	// ResolvedType is filled in by the constraint generator as it walks
	// this node (spec §4.2): the fresh variable or structural type it
	// assigned here. It is High, not yet Low, so the lowerer must still
	// run it through the solver's substitution (Unifier.Apply) before
	// treating it as ground.
	ResolvedType types.High
}

func (b Base) ID() uint64          { return b.NodeID }
func (b Base) Span() ast.Span      { return b.NodeSpan }
func (b Base) Type() types.High    { return b.ResolvedType }
func (b *Base) SetType(t types.High) { b.ResolvedType = t }
func (Base) node()                 {}

// Scheme is a stored typed binding whose implicit parameters are filled in
// per use site (spec glossary: "Template"). Vars names the implicit type
// parameters that a use-site's Instantiated constraint will freshen.
type Scheme struct {
	Vars []names.Name
	Body types.High
}

// Var is a variable reference. If Template is non-nil, this is a
// polymorphic use-site: the generator emits an Instantiated constraint
// for it, and the solver mints fresh unification variables per
// Template.Vars when it processes that constraint (spec §4.2).
type Var struct {
	Base
	Name     names.Name
	Template *Scheme
}

func (v *Var) String() string { return fmt.Sprintf("#%d", v.Name) }

// Lit is an integer literal. Its type is always a fresh unification
// variable at elaboration time, constrained Numeric (spec §4.2).
type Lit struct {
	Base
	Value int64
}

func (l *Lit) String() string { return fmt.Sprintf("%d", l.Value) }

// Param is one lambda parameter: a name with a declared (possibly
// variable-containing) type annotation.
type Param struct {
	Name names.Name
	Type types.High
}

// Lambda introduces a function value. Closures are not supported (spec
// §9), and nothing checks for them: neither the generator nor the lowerer
// looks for names in a Lambda's Body that are bound outside Params, and no
// closure diagnostic is emitted.
type Lambda struct {
	Base
	Params  []Param
	Returns []types.High
	Body    Node
}

func (l *Lambda) String() string { return fmt.Sprintf("\\%v -> ...", l.Params) }

// App is function application: f(args...).
type App struct {
	Base
	Func Node
	Args []Node

	// ArgCoercions holds the CoercionID the generator minted for each
	// argument's Assignable constraint, in Args order, so the lowerer
	// can look up the solver's recorded CoercionState without having to
	// recompute it (spec §4.4: "Coercion sites consult the coercion
	// map").
	ArgCoercions []types.CoercionID
}

func (a *App) String() string { return fmt.Sprintf("%s(...)", a.Func) }

// Pattern destructures a scrutinee. The generator walks it to emit Equal
// constraints between each sub-pattern and the corresponding projection
// of the scrutinee's type (spec §4.2).
type Pattern interface {
	Span() ast.Span
	pattern()
}

// PatVar binds the whole matched value to a single name.
type PatVar struct {
	NodeSpan ast.Span
	Name     names.Name
}

func (p PatVar) Span() ast.Span { return p.NodeSpan }
func (PatVar) pattern()         {}

// PatTuple destructures a product value positionally.
type PatTuple struct {
	NodeSpan ast.Span
	Elems    []Pattern
}

func (p PatTuple) Span() ast.Span { return p.NodeSpan }
func (PatTuple) pattern()         {}

// PatWildcard matches and discards.
type PatWildcard struct {
	NodeSpan ast.Span
}

func (p PatWildcard) Span() ast.Span { return p.NodeSpan }
func (PatWildcard) pattern()         {}

// Let is a (possibly-destructuring, possibly-generalized) binding. Scheme
// is non-nil exactly when Value's type was generalized, making this
// binding a template other use-sites may instantiate (spec §4.4
// monomorphization: "a stored template for each polymorphic binding").
type Let struct {
	Base
	Pattern Pattern
	Scheme  *Scheme
	Value   Node
	Body    Node
}

func (l *Let) String() string { return "let ... in ..." }

// Tuple constructs a product value.
type Tuple struct {
	Base
	Elems []Node
}

func (t *Tuple) String() string { return "(...)" }

// RecordLit constructs a trait-like existential record value.
type RecordLit struct {
	Base
	Fields []RecordFieldInit
}

// RecordFieldInit is one field of a RecordLit.
type RecordFieldInit struct {
	Label string
	Value Node
}

func (r *RecordLit) String() string { return "{...}" }

// FieldAccess projects one field out of a record value.
type FieldAccess struct {
	Base
	Record Node
	Label  string
}

func (f *FieldAccess) String() string { return fmt.Sprintf("%s.%s", f.Record, f.Label) }

// Hole is an explicit typed hole left in the surface program. It survives
// elaboration only if the lowerer fails to eliminate it, at which point it
// is reported as HolePresent (spec §7); the report's message carries the
// hole's span, not its inferred type.
type Hole struct {
	Base
}

func (h *Hole) String() string { return "?hole" }

// Invalid marks a node the front-end could not resolve (e.g. an unbound
// name); the core treats it as Invalid and proceeds (spec §7 NameError
// policy).
type Invalid struct {
	Base
	Reason string
}

func (i *Invalid) String() string { return "<invalid>" }

var (
	_ Node = (*Var)(nil)
	_ Node = (*Lit)(nil)
	_ Node = (*Lambda)(nil)
	_ Node = (*App)(nil)
	_ Node = (*Let)(nil)
	_ Node = (*Tuple)(nil)
	_ Node = (*RecordLit)(nil)
	_ Node = (*FieldAccess)(nil)
	_ Node = (*Hole)(nil)
	_ Node = (*Invalid)(nil)
)
