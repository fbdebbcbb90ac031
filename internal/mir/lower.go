package mir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// typedNode is the capability the generator attaches to every surface
// node via constraint.Generate's defer (spec §4.2/§4.4: the generator
// stamps each node's high type; the lowerer reads it back post-solve).
type typedNode interface {
	Type() types.High
}

// template remembers a polymorphic binding's original body and implicit
// parameters, so an Instantiated use-site can request a fresh
// specialization of it (spec §4.4 "Monomorphization is driven by a
// worklist").
type template struct {
	Params      []typedsurface.Param
	Body        typedsurface.Node
	ReturnArity int
	Vars        []names.Name
}

type instRequest struct {
	target  names.Name
	tmpl    *template
	instMap map[names.Name]types.High
}

// Lowerer performs component C4: apply substitution, destructure
// patterns, monomorphize (spec §4.4).
//
// Grounded on the teacher's elaborator (internal/elaborate/elaborate.go,
// patterns.go), generalized from AILANG's dictionary-passing
// elaboration of type classes to the spec's instantiation-map
// monomorphization, and on
// other_examples/843928eb_malphas-lang-malphas-lang__internal-mir-monomorphize.go.go's
// specialize-by-mangled-name worklist shape.
type Lowerer struct {
	Names   *names.Store
	Types   *types.Store
	Unifier *types.Unifier
	// Coercions is the solver's per-site CoercionState map (spec §4.4:
	// "Coercion sites consult the coercion map").
	Coercions map[types.CoercionID]types.CoercionState

	templates   map[names.Name]*template
	specialized map[string]names.Name
	worklist    []instRequest
	out         []ValueDef
	errs        []error
}

// NewLowerer creates a Lowerer over the given name/type stores and the
// solver's finished unifier and coercion map.
func NewLowerer(n *names.Store, t *types.Store, u *types.Unifier, coercions map[types.CoercionID]types.CoercionState) *Lowerer {
	return &Lowerer{
		Names:       n,
		Types:       t,
		Unifier:     u,
		Coercions:   coercions,
		templates:   make(map[names.Name]*template),
		specialized: make(map[string]names.Name),
	}
}

// Lower walks the top-level let spine of root, producing every
// monomorphized top-level definition plus any lowering diagnostics.
func (lw *Lowerer) Lower(root typedsurface.Node) (*Decls, []error) {
	for _, l := range flattenLets(root) {
		lw.lowerTopLevel(l)
	}
	for len(lw.worklist) > 0 {
		req := lw.worklist[0]
		lw.worklist = lw.worklist[1:]
		lw.monomorphize(req)
	}
	return &Decls{Values: lw.out}, lw.errs
}

func flattenLets(n typedsurface.Node) []*typedsurface.Let {
	var out []*typedsurface.Let
	for {
		l, ok := n.(*typedsurface.Let)
		if !ok {
			return out
		}
		out = append(out, l)
		n = l.Body
	}
}

func (lw *Lowerer) lowerTopLevel(l *typedsurface.Let) {
	name := patternHeadName(l.Pattern)
	if name == names.Invalid {
		return
	}
	if l.Scheme != nil && len(l.Scheme.Vars) > 0 {
		// A generalized binding is stored as a template rather than
		// lowered directly; specializations are produced on demand as
		// Instantiated use-sites are discovered elsewhere (spec §4.4).
		lw.templates[name] = lw.buildTemplate(l.Value, l.Scheme.Vars)
		return
	}
	lw.out = append(lw.out, lw.lowerDef(name, l.Value))
}

func (lw *Lowerer) buildTemplate(value typedsurface.Node, vars []names.Name) *template {
	if lam, ok := value.(*typedsurface.Lambda); ok {
		arity := len(lam.Returns)
		if arity == 0 {
			arity = 1
		}
		return &template{Params: lam.Params, Body: lam.Body, ReturnArity: arity, Vars: vars}
	}
	return &template{Body: value, ReturnArity: 1, Vars: vars}
}

// lowerDef lowers one monomorphic definition: a bare value, or a lambda
// whose parameters become the ValueDef's parameter list.
func (lw *Lowerer) lowerDef(name names.Name, value typedsurface.Node) ValueDef {
	params, body, returnArity := unwrapLambda(value)
	b := newBlockBuilder(lw)
	result := b.lowerExpr(body)
	b.block.Branch = Return{Base: Base{NodeSpan: body.Span()}, Values: []Value{result}}
	return ValueDef{Name: name, Params: params, ReturnArity: returnArity, Body: b.block, Type: lw.lowerNodeType(value), Pure: true}
}

func unwrapLambda(value typedsurface.Node) (params []names.Name, body typedsurface.Node, returnArity int) {
	lam, ok := value.(*typedsurface.Lambda)
	if !ok {
		return nil, value, 1
	}
	for _, p := range lam.Params {
		params = append(params, p.Name)
	}
	returnArity = len(lam.Returns)
	if returnArity == 0 {
		returnArity = 1
	}
	return params, lam.Body, returnArity
}

func (lw *Lowerer) lowerNodeType(n typedsurface.Node) types.TypeId {
	tn, ok := n.(typedNode)
	if !ok {
		return types.InvalidTypeId
	}
	resolved := lw.Unifier.Apply(tn.Type())
	return types.Lower(lw.Types, resolved)
}

// blockBuilder accumulates the statement sequence one function body
// lowers to, since MIR replaces nested let-expressions with a flat list
// of statements binding fresh names (spec §4.4).
type blockBuilder struct {
	lw    *Lowerer
	block *Block
	env   map[names.Name]Value
}

func newBlockBuilder(lw *Lowerer) *blockBuilder {
	return &blockBuilder{lw: lw, block: &Block{}}
}

func (b *blockBuilder) emit(s Statement) { b.block.Statements = append(b.block.Statements, s) }

func (b *blockBuilder) fresh(at ast.Span) names.Name {
	return b.lw.Names.Fresh(at, names.Invalid)
}

func (b *blockBuilder) alias(n names.Name, v Value) {
	if b.env == nil {
		b.env = make(map[names.Name]Value)
	}
	b.env[n] = v
}

func (b *blockBuilder) lowerExpr(node typedsurface.Node) Value {
	switch n := node.(type) {
	case *typedsurface.Lit:
		return Lit{Val: n.Value}

	case *typedsurface.Var:
		if v, ok := b.env[n.Name]; ok {
			return v
		}
		if n.Template != nil {
			return b.lowerInstantiatedVar(n)
		}
		return NameRef{Name: n.Name}

	case *typedsurface.App:
		fun := b.lowerExpr(n.Func)
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			args[i] = b.lowerCoercedArg(a, i, n)
		}
		result := b.fresh(n.Span())
		b.emit(Apply{Base: Base{NodeSpan: n.Span(), NodeType: b.lw.lowerNodeType(n)}, Names: []names.Name{result}, Fun: fun, Args: args})
		return NameRef{Name: result}

	case *typedsurface.Tuple:
		vals := make([]Value, len(n.Elems))
		for i, e := range n.Elems {
			vals[i] = b.lowerExpr(e)
		}
		result := b.fresh(n.Span())
		b.emit(Tuple{Base: Base{NodeSpan: n.Span(), NodeType: b.lw.lowerNodeType(n)}, Name: result, Values: vals})
		return NameRef{Name: result}

	case *typedsurface.RecordLit:
		vals := make([]Value, len(n.Fields))
		for i, f := range n.Fields {
			vals[i] = b.lowerExpr(f.Value)
		}
		result := b.fresh(n.Span())
		b.emit(Tuple{Base: Base{NodeSpan: n.Span(), NodeType: b.lw.lowerNodeType(n)}, Name: result, Values: vals})
		return NameRef{Name: result}

	case *typedsurface.FieldAccess:
		rec := b.lowerExpr(n.Record)
		at := 0
		if tn, ok := n.Record.(typedNode); ok {
			if recType, ok := b.lw.Unifier.Apply(tn.Type()).(types.Record); ok {
				for i, f := range recType.Fields {
					if f.Label == n.Label {
						at = i
						break
					}
				}
			}
		}
		result := b.fresh(n.Span())
		b.emit(Proj{Base: Base{NodeSpan: n.Span(), NodeType: b.lw.lowerNodeType(n)}, Name: result, Of: rec, At: at})
		return NameRef{Name: result}

	case *typedsurface.Lambda:
		name := b.fresh(n.Span())
		vd := b.lw.lowerDef(name, n)
		b.emit(Function{Base: Base{NodeSpan: n.Span(), NodeType: vd.Type}, Name: name, Params: vd.Params, ReturnArity: vd.ReturnArity, Body: vd.Body, Pure: vd.Pure})
		return NameRef{Name: name}

	case *typedsurface.Let:
		val := b.lowerExpr(n.Value)
		b.bindPattern(n.Pattern, val, n.Span())
		return b.lowerExpr(n.Body)

	case *typedsurface.Hole:
		b.lw.errs = append(b.lw.errs, fmt.Errorf("%s: hole present after lowering", n.Span()))
		return Invalid{}

	case *typedsurface.Invalid:
		return Invalid{}

	default:
		return Invalid{}
	}
}

// lowerCoercedArg lowers argument at index i of app, consulting the
// solver's recorded CoercionState for that argument's site (spec §4.4:
// Equal sites erase, Coercible sites emit an explicit Coerce statement,
// Invalid sites become Invalid).
func (b *blockBuilder) lowerCoercedArg(arg typedsurface.Node, i int, app *typedsurface.App) Value {
	v := b.lowerExpr(arg)
	if i >= len(app.ArgCoercions) {
		return v
	}
	state, ok := b.lw.Coercions[app.ArgCoercions[i]]
	if !ok || state == types.CoercionEqual {
		return v
	}
	if state == types.CoercionInvalid {
		return Invalid{}
	}
	result := b.fresh(arg.Span())
	b.emit(Coerce{Base: Base{NodeSpan: arg.Span(), NodeType: b.lw.lowerNodeType(arg)}, Name: result, From: v, State: state})
	return NameRef{Name: result}
}

func (b *blockBuilder) bindPattern(p typedsurface.Pattern, val Value, at ast.Span) {
	switch p := p.(type) {
	case typedsurface.PatVar:
		b.alias(p.Name, val)
	case typedsurface.PatTuple:
		for i, sub := range p.Elems {
			result := b.fresh(at)
			b.emit(Proj{Base: Base{NodeSpan: at}, Name: result, Of: val, At: i})
			b.bindPattern(sub, NameRef{Name: result}, at)
		}
	case typedsurface.PatWildcard:
		// matches and discards
	}
}

func (b *blockBuilder) lowerInstantiatedVar(n *typedsurface.Var) Value {
	tmpl, ok := b.lw.templates[n.Name]
	if !ok {
		return NameRef{Name: n.Name}
	}
	resolved := b.lw.Unifier.Apply(n.Type())
	vars := make(map[names.Name]bool, len(n.Template.Vars))
	for _, v := range n.Template.Vars {
		vars[v] = true
	}
	instMap := make(map[names.Name]types.High)
	matchInstantiation(n.Template.Body, resolved, vars, instMap)

	key := instMapKey(n.Name, instMap)
	if target, ok := b.lw.specialized[key]; ok {
		return NameRef{Name: target}
	}
	target := b.fresh(n.Span())
	b.lw.specialized[key] = target
	b.lw.worklist = append(b.lw.worklist, instRequest{target: target, tmpl: tmpl, instMap: instMap})
	return NameRef{Name: target}
}

func (lw *Lowerer) monomorphize(req instRequest) {
	params := make([]typedsurface.Param, len(req.tmpl.Params))
	for i, p := range req.tmpl.Params {
		params[i] = typedsurface.Param{Name: p.Name, Type: substType(p.Type, req.instMap)}
	}
	body := substTypesInNode(req.tmpl.Body, req.instMap)
	var value typedsurface.Node = body
	if len(params) > 0 {
		returns := make([]types.High, req.tmpl.ReturnArity)
		for i := range returns {
			returns[i] = types.Invalid{Reason: "monomorphized return type not individually tracked"}
		}
		value = &typedsurface.Lambda{Params: params, Returns: returns, Body: body}
	}
	lw.out = append(lw.out, lw.lowerDef(req.target, value))
}

// matchInstantiation walks tmpl and resolved in parallel, recording a
// binding for every bare Named reference to one of vars. This assumes
// template bodies spell their implicit parameters as unapplied Named
// types (the shape the generator and surface builder both produce for
// this language); a template that buried a parameter deeper than one
// structural layer of indirection would need a fuller unifier-style
// match, which this simplified version does not attempt.
func matchInstantiation(tmpl, resolved types.High, vars map[names.Name]bool, out map[names.Name]types.High) {
	switch tmpl := tmpl.(type) {
	case types.Named:
		if len(tmpl.Args) == 0 && vars[tmpl.Name] {
			out[tmpl.Name] = resolved
			return
		}
		if r, ok := resolved.(types.Named); ok && len(tmpl.Args) == len(r.Args) {
			for i := range tmpl.Args {
				matchInstantiation(tmpl.Args[i], r.Args[i], vars, out)
			}
		}
	case types.Function:
		if r, ok := resolved.(types.Function); ok {
			for i := range tmpl.Params {
				if i < len(r.Params) {
					matchInstantiation(tmpl.Params[i], r.Params[i], vars, out)
				}
			}
			for i := range tmpl.Returns {
				if i < len(r.Returns) {
					matchInstantiation(tmpl.Returns[i], r.Returns[i], vars, out)
				}
			}
		}
	case types.Product:
		if r, ok := resolved.(types.Product); ok {
			for i := range tmpl.Elems {
				if i < len(r.Elems) {
					matchInstantiation(tmpl.Elems[i], r.Elems[i], vars, out)
				}
			}
		}
	case types.Record:
		if r, ok := resolved.(types.Record); ok {
			for _, f := range tmpl.Fields {
				if rf, ok := r.FieldType(f.Label); ok {
					matchInstantiation(f.Type, rf, vars, out)
				}
			}
		}
	}
}

func instMapKey(name names.Name, m map[names.Name]types.High) string {
	keys := make([]names.Name, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	var b strings.Builder
	fmt.Fprintf(&b, "%d", name)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%d=%s", k, m[k].String())
	}
	return b.String()
}

func substType(t types.High, instMap map[names.Name]types.High) types.High {
	if t == nil {
		return t
	}
	return types.Instantiated{Type: t, Template: instMap}.Resolve()
}

// substTypesInNode rewrites the type annotations reachable from n
// (lambda parameter/return types) under instMap, for monomorphizing a
// stored template at a fresh instantiation (spec §4.4).
func substTypesInNode(n typedsurface.Node, instMap map[names.Name]types.High) typedsurface.Node {
	switch n := n.(type) {
	case *typedsurface.Lambda:
		params := make([]typedsurface.Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = typedsurface.Param{Name: p.Name, Type: substType(p.Type, instMap)}
		}
		returns := make([]types.High, len(n.Returns))
		for i, r := range n.Returns {
			returns[i] = substType(r, instMap)
		}
		return &typedsurface.Lambda{Base: n.Base, Params: params, Returns: returns, Body: substTypesInNode(n.Body, instMap)}
	case *typedsurface.App:
		args := make([]typedsurface.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = substTypesInNode(a, instMap)
		}
		return &typedsurface.App{Base: n.Base, Func: substTypesInNode(n.Func, instMap), Args: args, ArgCoercions: n.ArgCoercions}
	case *typedsurface.Let:
		return &typedsurface.Let{Base: n.Base, Pattern: n.Pattern, Scheme: n.Scheme, Value: substTypesInNode(n.Value, instMap), Body: substTypesInNode(n.Body, instMap)}
	case *typedsurface.Tuple:
		elems := make([]typedsurface.Node, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = substTypesInNode(e, instMap)
		}
		return &typedsurface.Tuple{Base: n.Base, Elems: elems}
	case *typedsurface.RecordLit:
		fields := make([]typedsurface.RecordFieldInit, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = typedsurface.RecordFieldInit{Label: f.Label, Value: substTypesInNode(f.Value, instMap)}
		}
		return &typedsurface.RecordLit{Base: n.Base, Fields: fields}
	case *typedsurface.FieldAccess:
		return &typedsurface.FieldAccess{Base: n.Base, Record: substTypesInNode(n.Record, instMap), Label: n.Label}
	default:
		return n
	}
}

func patternHeadName(p typedsurface.Pattern) names.Name {
	if v, ok := p.(typedsurface.PatVar); ok {
		return v.Name
	}
	return names.Invalid
}
