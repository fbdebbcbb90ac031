package constraint

import (
	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// Context maps each bound name to its template, per spec §4.2: "A
// `context` mapping each bound name to a *template* (a type possibly
// containing unification variables bound at a binding site)."
type Context map[names.Name]*typedsurface.Scheme

// Generator walks a typed surface tree and accumulates constraints. It
// owns the monotonically increasing unification-variable counter and the
// per-span fresh-variable count map the spec requires for deterministic,
// replayable variable ids (§4.2).
type Generator struct {
	Context     Context
	Constraints []Constraint

	nextVar     uint64
	nextCoerce  uint64
	FreshAtSpan map[ast.Span]int
}

// NewGenerator creates an empty Generator.
func NewGenerator() *Generator {
	return &Generator{
		Context:     make(Context),
		FreshAtSpan: make(map[ast.Span]int),
	}
}

func (g *Generator) freshVar(at ast.Span) types.High {
	g.nextVar++
	g.FreshAtSpan[at]++
	return types.UVar{ID: g.nextVar, Mutable: true}
}

func (g *Generator) freshCoercion() CoercionID {
	g.nextCoerce++
	return CoercionID(g.nextCoerce)
}

func (g *Generator) emit(c Constraint) { g.Constraints = append(g.Constraints, c) }

// Generate walks node, returning its high type and appending every
// constraint needed to later solve it. Before returning, it also stamps
// the type back onto node (when node supports SetType) so later passes
// — chiefly the lowerer, after the solver has run — can look up each
// node's pre-solve type without re-deriving it.
func (g *Generator) Generate(node typedsurface.Node) (result types.High) {
	defer func() {
		if setter, ok := node.(interface{ SetType(types.High) }); ok {
			setter.SetType(result)
		}
	}()
	switch n := node.(type) {
	case *typedsurface.Invalid:
		return types.Invalid{Reason: n.Reason}

	case *typedsurface.Hole:
		t := g.freshVar(n.Span())
		return t

	case *typedsurface.Lit:
		t := g.freshVar(n.Span())
		g.emit(Constraint{Kind: KindNumeric, At: n.Span(), Numeric: t})
		return t

	case *typedsurface.Var:
		tmpl := n.Template
		if tmpl == nil {
			tmpl = g.Context[n.Name]
		}
		if tmpl == nil {
			return types.Named{Name: n.Name}
		}
		// Each use-site of a polymorphic name gets fresh unification
		// variables per implicit type parameter; an Instantiated
		// constraint links the freshened type to the stored template
		// (spec §4.2). A monomorphic binding (no implicit parameters) goes
		// through the same path with an empty Vars list, so a plain
		// let/parameter reference still ties back to its binding's type
		// via Context.
		result := g.freshVar(n.Span())
		g.emit(Constraint{
			Kind:         KindInstantiated,
			At:           n.Span(),
			InstTarget:   result,
			InstTemplate: tmpl,
		})
		return result

	case *typedsurface.Lambda:
		// Bind each parameter's declared type into Context before
		// walking the body, so a Var referencing a parameter resolves
		// through the same Instantiated path as a let-bound name
		// (spec §4.2).
		for _, p := range n.Params {
			g.Context[p.Name] = &typedsurface.Scheme{Body: p.Type}
		}
		bodyType := g.Generate(n.Body)
		returns := n.Returns
		if len(returns) == 0 {
			returns = []types.High{bodyType}
		} else {
			// The body's type is tied to the first declared return type;
			// the declared return arity itself is not checked here.
			g.emit(Constraint{Kind: KindEqual, At: n.Span(), T: bodyType, U: returns[0]})
		}
		params := make([]types.High, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Type
		}
		return types.Function{Params: params, Returns: returns}

	case *typedsurface.App:
		fnType := g.Generate(n.Func)
		argTypes := make([]types.High, len(n.Args))
		for i, a := range n.Args {
			argTypes[i] = g.Generate(a)
		}
		fn, ok := fnType.(types.Function)
		n.ArgCoercions = make([]types.CoercionID, len(argTypes))
		if !ok {
			// The function position's type is not yet known to be a
			// function (e.g. a fresh variable, or a template
			// instantiation in flight); synthesize the expected shape and
			// let Equal pin it down during solving.
			fresh := make([]types.High, len(argTypes))
			returns := []types.High{g.freshVar(n.Span())}
			g.emit(Constraint{Kind: KindEqual, At: n.Span(), T: fnType, U: types.Function{Params: fresh, Returns: returns}})
			for i, a := range argTypes {
				id := g.freshCoercion()
				n.ArgCoercions[i] = id
				g.emit(Constraint{Kind: KindAssignable, At: n.Func.Span(), CoercionID: id, Into: fresh[i], From: a})
			}
			return returns[0]
		}
		if len(fn.Params) != len(argTypes) {
			return types.Invalid{Reason: "arity mismatch"}
		}
		for i := range argTypes {
			id := g.freshCoercion()
			n.ArgCoercions[i] = id
			// Function application: given f: T1..Tn -> U1..Um at args,
			// emit Assignable(arg_i, Ti) for each i (spec §4.2).
			g.emit(Constraint{Kind: KindAssignable, At: n.Args[i].Span(), CoercionID: id, Into: fn.Params[i], From: argTypes[i]})
		}
		results := make([]types.High, len(fn.Returns))
		for i, r := range fn.Returns {
			fresh := g.freshVar(n.Span())
			g.emit(Constraint{Kind: KindEqual, At: n.Span(), T: fresh, U: r})
			results[i] = fresh
		}
		if len(results) == 1 {
			return results[0]
		}
		return types.Product{Elems: results}

	case *typedsurface.Tuple:
		elems := make([]types.High, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = g.Generate(e)
		}
		return types.Product{Elems: elems}

	case *typedsurface.RecordLit:
		fields := make([]types.Field, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = types.Field{Label: f.Label, Type: g.Generate(f.Value)}
		}
		return types.Record{Fields: fields}

	case *typedsurface.FieldAccess:
		recType := g.Generate(n.Record)
		fieldType := g.freshVar(n.Span())
		g.emit(Constraint{Kind: KindField, At: n.Span(), FieldRecord: recType, FieldLabel: n.Label, FieldType: fieldType})
		return fieldType

	case *typedsurface.Let:
		valueType := g.Generate(n.Value)
		if n.Scheme != nil {
			g.Context[patternHeadName(n.Pattern)] = n.Scheme
		}
		g.generatePattern(n.Pattern, valueType)
		return g.Generate(n.Body)

	default:
		return types.Invalid{Reason: "unhandled surface node"}
	}
}

// generatePattern walks a pattern, emitting Equal between each sub-pattern
// type and the corresponding projection of the scrutinee type (spec §4.2).
func (g *Generator) generatePattern(p typedsurface.Pattern, scrutinee types.High) {
	switch p := p.(type) {
	case typedsurface.PatVar:
		// The bound name's type is exactly the scrutinee's type; recorded
		// via a trivial template (no implicit parameters) so later
		// lookups through Context are uniform.
		g.Context[p.Name] = &typedsurface.Scheme{Body: scrutinee}
	case typedsurface.PatTuple:
		elems := g.elemsOrSelf(scrutinee, p.Span(), len(p.Elems))
		for i, sub := range p.Elems {
			proj := g.freshVar(p.Span())
			g.emit(Constraint{Kind: KindEqual, At: p.Span(), T: proj, U: elems[i]})
			g.generatePattern(sub, proj)
		}
	case typedsurface.PatWildcard:
		// matches and discards; nothing to bind
	}
}

// elemsOrSelf returns the n per-element types of t's tuple shape. When t
// is not already a concrete Product (anything but a literal Tuple
// expression — a parameter, an earlier binding, a call or field result),
// it mints n fresh unification variables and emits an Equal constraint
// tying the fabricated Product back to t itself, so t's tuple shape is
// actually constrained rather than merely assumed.
func (g *Generator) elemsOrSelf(t types.High, at ast.Span, n int) []types.High {
	if prod, ok := t.(types.Product); ok {
		return prod.Elems
	}
	elems := make([]types.High, n)
	for i := range elems {
		elems[i] = g.freshVar(at)
	}
	g.emit(Constraint{Kind: KindEqual, At: at, T: t, U: types.Product{Elems: elems}})
	return elems
}

func patternHeadName(p typedsurface.Pattern) names.Name {
	if v, ok := p.(typedsurface.PatVar); ok {
		return v.Name
	}
	return names.Invalid
}
