// Package fixture decodes a JSON document into a typedsurface.Node, the
// typed-tree shape the core's front-end collaborator normally supplies
// (spec §6). Lexing, parsing and name resolution are out of the core's
// scope (spec §1), so `cmd/zc check`/`lsp` have no real front end to call;
// this package is the stand-in a collaborator's own typed-tree
// serialization would otherwise occupy, covering the common surface
// (Var/Lit/Lambda/Let/App/Tuple/Hole) rather than every node kind.
//
// Grounded on the teacher's internal/iface JSON-driven interface-loading
// shape (internal/iface/builder.go interning names as it decodes),
// adapted from AILANG's module-interface schema to a single typed-tree
// document.
package fixture

import (
	"encoding/json"
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
	"github.com/zc-lang/zc/internal/types"
)

// node is the raw JSON shape every fixture node decodes into before it is
// resolved into a typedsurface.Node. Fields are interpreted based on Kind.
type node struct {
	Kind string `json:"kind"`

	// var
	Name string `json:"name,omitempty"`

	// lit
	Value int64 `json:"value,omitempty"`

	// lambda
	Params []param `json:"params,omitempty"`
	Body   *node   `json:"body,omitempty"`

	// app
	Func *node  `json:"func,omitempty"`
	Args []node `json:"args,omitempty"`

	// let
	Pattern *pattern `json:"pattern,omitempty"`
	ValueN  *node    `json:"value_node,omitempty"`
	In      *node    `json:"in,omitempty"`

	// tuple
	Elems []node `json:"elems,omitempty"`
}

type param struct {
	Name string   `json:"name"`
	Type typeSpec `json:"type"`
}

type typeSpec struct {
	Kind string `json:"kind"`
	Lo   int64  `json:"lo,omitempty"`
	Hi   int64  `json:"hi,omitempty"`
}

type pattern struct {
	Kind  string    `json:"kind"`
	Name  string    `json:"name,omitempty"`
	Elems []pattern `json:"elems,omitempty"`
}

// decoder resolves string variable names against a single flat scope,
// standing in for the real name resolution a front end would already
// have performed (spec §1 places it out of the core's scope): the same
// string always resolves to the same names.Name once bound.
type decoder struct {
	ns    *names.Store
	root  names.Name
	scope map[string]names.Name
}

// Decode parses a JSON typed-tree document into a typedsurface.Node,
// interning every bound name into ns.
func Decode(data []byte, ns *names.Store) (typedsurface.Node, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	d := &decoder{
		ns:    ns,
		root:  ns.Intern(names.Path{Actual: names.Actual{Kind: names.Root}}, ast.None),
		scope: make(map[string]names.Name),
	}
	return d.node(&n)
}

func (d *decoder) bind(text string) names.Name {
	n := d.ns.Intern(names.Path{Parent: d.root, Actual: names.Actual{Kind: names.Literal, Text: text}}, ast.None)
	d.scope[text] = n
	return n
}

func (d *decoder) resolve(text string) (names.Name, error) {
	if n, ok := d.scope[text]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("fixture: unresolved name %q", text)
}

func (d *decoder) typ(t typeSpec) (types.High, error) {
	switch t.Kind {
	case "", "number":
		return types.Number{}, nil
	case "range":
		return types.Range{Lo: t.Lo, Hi: t.Hi}, nil
	default:
		return nil, fmt.Errorf("fixture: unsupported type kind %q", t.Kind)
	}
}

func (d *decoder) node(n *node) (typedsurface.Node, error) {
	if n == nil {
		return nil, fmt.Errorf("fixture: nil node")
	}
	switch n.Kind {
	case "var":
		name, err := d.resolve(n.Name)
		if err != nil {
			return nil, err
		}
		return &typedsurface.Var{Name: name}, nil

	case "lit":
		return &typedsurface.Lit{Value: n.Value}, nil

	case "hole":
		return &typedsurface.Hole{}, nil

	case "lambda":
		params := make([]typedsurface.Param, len(n.Params))
		for i, p := range n.Params {
			t, err := d.typ(p.Type)
			if err != nil {
				return nil, err
			}
			params[i] = typedsurface.Param{Name: d.bind(p.Name), Type: t}
		}
		body, err := d.node(n.Body)
		if err != nil {
			return nil, err
		}
		return &typedsurface.Lambda{Params: params, Body: body}, nil

	case "app":
		fn, err := d.node(n.Func)
		if err != nil {
			return nil, err
		}
		args := make([]typedsurface.Node, len(n.Args))
		for i := range n.Args {
			a, err := d.node(&n.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &typedsurface.App{Func: fn, Args: args}, nil

	case "tuple":
		elems := make([]typedsurface.Node, len(n.Elems))
		for i := range n.Elems {
			e, err := d.node(&n.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &typedsurface.Tuple{Elems: elems}, nil

	case "let":
		if n.Pattern == nil {
			return nil, fmt.Errorf("fixture: let without a pattern")
		}
		// Value is decoded before the pattern binds its name: a let
		// binding is not implicitly recursive (spec §9 permits no
		// closures at all, so a self-reference in Value could never
		// resolve through a captured environment anyway).
		val, err := d.node(n.ValueN)
		if err != nil {
			return nil, err
		}
		pat, err := d.pattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		body, err := d.node(n.In)
		if err != nil {
			return nil, err
		}
		return &typedsurface.Let{Pattern: pat, Value: val, Body: body}, nil

	default:
		return nil, fmt.Errorf("fixture: unsupported node kind %q", n.Kind)
	}
}

func (d *decoder) pattern(p *pattern) (typedsurface.Pattern, error) {
	switch p.Kind {
	case "", "var":
		return typedsurface.PatVar{Name: d.bind(p.Name)}, nil
	case "wildcard":
		return typedsurface.PatWildcard{}, nil
	case "tuple":
		elems := make([]typedsurface.Pattern, len(p.Elems))
		for i := range p.Elems {
			e, err := d.pattern(&p.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return typedsurface.PatTuple{Elems: elems}, nil
	default:
		return nil, fmt.Errorf("fixture: unsupported pattern kind %q", p.Kind)
	}
}
