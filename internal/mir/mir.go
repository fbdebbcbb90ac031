// Package mir implements the mid-level IR (component C4's output): an
// ordered block of statements terminated by a branch, SSA-like in that
// every statement binds fresh names (spec §3 "MIR (mid-level IR)", P5).
//
// Grounded on the teacher's internal/core package (CoreExpr/Var/Lit/
// Lambda/Let/App in core.go, an A-Normal-Form expression tree),
// generalized from AILANG's nested-let expression tree to the spec's
// flat block/statement/branch shape: every "let" becomes a Statement
// binding into the enclosing Block instead of a nested sub-expression.
package mir

import (
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/types"
)

// Value is one of the three forms a MIR operand can take.
type Value interface {
	fmt.Stringer
	value()
}

// Lit is an integer literal operand.
type Lit struct{ Val int64 }

func (Lit) value()            {}
func (l Lit) String() string  { return fmt.Sprintf("%d", l.Val) }

// NameRef refers to a previously bound name.
type NameRef struct{ Name names.Name }

func (NameRef) value()           {}
func (n NameRef) String() string { return fmt.Sprintf("#%d", n.Name) }

// Invalid marks an operand that could not be resolved (a dangling
// reference, a failed coercion). It proceeds through lowering and
// partial evaluation without panicking (spec §7 soft-failing policy).
type Invalid struct{}

func (Invalid) value()         {}
func (Invalid) String() string { return "<invalid>" }

// Base carries the span and type id every statement and branch has.
type Base struct {
	NodeSpan ast.Span
	NodeType types.TypeId
}

func (b Base) Span() ast.Span     { return b.NodeSpan }
func (b Base) Type() types.TypeId { return b.NodeType }

// Statement is one node of a Block's ordered statement list.
type Statement interface {
	Span() ast.Span
	Type() types.TypeId
	statement()
}

// Apply calls fun with args, binding the (possibly multiple) results to
// Names in order.
type Apply struct {
	Base
	Names []names.Name
	Fun   Value
	Args  []Value
}

func (Apply) statement() {}

// Tuple constructs a product value from Values, bound to Name.
type Tuple struct {
	Base
	Name   names.Name
	Values []Value
}

func (Tuple) statement() {}

// Proj projects the field at index At out of Of, bound to Name.
type Proj struct {
	Base
	Name names.Name
	Of   Value
	At   int
}

func (Proj) statement() {}

// Function introduces a nested function value; it is the only way
// function values are introduced in MIR (spec §3 invariant).
type Function struct {
	Base
	Name        names.Name
	Params      []names.Name
	ReturnArity int
	Body        *Block
	// Pure marks a function as free of observable side effects, letting
	// the partial evaluator pre-evaluate calls to it with static
	// arguments (spec §4.5 "pure function pre-evaluation"). Lowering
	// defaults every definition to true: this language fragment has no
	// side-effecting builtins in scope.
	Pure bool
}

func (Function) statement() {}

// Join is a labelled re-entry point. Jumping to one is not yet
// implemented by the partial evaluator (spec §4.5, §9) — it survives
// lowering as a well-formed no-op statement for blocks that never
// actually take the looping path.
type Join struct {
	Base
	Label names.Name
}

func (Join) statement() {}

// Coerce performs an explicit, solver-approved widening conversion. It
// is emitted only for coercion sites the solver recorded as Coercible;
// Equal sites are erased and Invalid sites become an Invalid value
// instead (spec §4.4).
type Coerce struct {
	Base
	Name  names.Name
	From  Value
	State types.CoercionState
}

func (Coerce) statement() {}

// Branch is a Block's terminal instruction.
type Branch interface {
	Span() ast.Span
	branch()
}

// Return exits the enclosing function with Values. Its arity must match
// the function's declared return arity (spec §3 invariant, checked by
// Check).
type Return struct {
	Base
	Values []Value
}

func (Return) branch() {}

// Jump transfers control to a Join label with one argument. Not yet
// implemented by the partial evaluator; present here for structural
// completeness (spec §4.5's documented TODO, §9).
type Jump struct {
	Base
	Label names.Name
	Arg   Value
}

func (Jump) branch() {}

// Block is a function body: an ordered statement list terminated by a
// branch.
type Block struct {
	Statements []Statement
	Branch     Branch
}

// ValueDef is one top-level definition produced by lowering: either an
// original monomorphic binding or a monomorphization of a polymorphic
// template at one concrete instantiation (spec §4.4).
type ValueDef struct {
	Name        names.Name
	Params      []names.Name
	ReturnArity int
	Body        *Block
	Type        types.TypeId // the definition's function type, post-substitution
	Pure        bool         // see Function.Pure
}

// Decls is the complete output of lowering: every monomorphized
// top-level definition.
type Decls struct {
	Values []ValueDef
}
