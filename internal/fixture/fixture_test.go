package fixture

import (
	"testing"

	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/typedsurface"
)

func TestDecodeIdentity(t *testing.T) {
	doc := []byte(`{
		"kind": "let",
		"pattern": {"kind": "var", "name": "id"},
		"value_node": {
			"kind": "lambda",
			"params": [{"name": "x", "type": {"kind": "range", "lo": 0, "hi": 10}}],
			"body": {"kind": "var", "name": "x"}
		},
		"in": {"kind": "var", "name": "id"}
	}`)

	ns := names.NewStore()
	root, err := Decode(doc, ns)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	let, ok := root.(*typedsurface.Let)
	if !ok {
		t.Fatalf("root = %T, want *typedsurface.Let", root)
	}
	lam, ok := let.Value.(*typedsurface.Lambda)
	if !ok {
		t.Fatalf("let.Value = %T, want *typedsurface.Lambda", let.Value)
	}
	if len(lam.Params) != 1 {
		t.Fatalf("len(lam.Params) = %d, want 1", len(lam.Params))
	}
	bodyVar, ok := lam.Body.(*typedsurface.Var)
	if !ok {
		t.Fatalf("lam.Body = %T, want *typedsurface.Var", lam.Body)
	}
	if bodyVar.Name != lam.Params[0].Name {
		t.Fatalf("lambda body does not resolve to its own parameter")
	}

	bodyRef, ok := let.Body.(*typedsurface.Var)
	if !ok {
		t.Fatalf("let.Body = %T, want *typedsurface.Var", let.Body)
	}
	patVar, ok := let.Pattern.(typedsurface.PatVar)
	if !ok {
		t.Fatalf("let.Pattern = %T, want typedsurface.PatVar", let.Pattern)
	}
	if bodyRef.Name != patVar.Name {
		t.Fatalf("let body does not resolve to the let-bound name")
	}
}

func TestDecodeRejectsUnresolvedName(t *testing.T) {
	ns := names.NewStore()
	_, err := Decode([]byte(`{"kind": "var", "name": "nope"}`), ns)
	if err == nil {
		t.Fatalf("expected an error for an unresolved variable")
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	ns := names.NewStore()
	_, err := Decode([]byte(`{"kind": "frobnicate"}`), ns)
	if err == nil {
		t.Fatalf("expected an error for an unknown node kind")
	}
}
