package peval

import "github.com/zc-lang/zc/internal/names"

// Env is a lexical binding environment, chained to a parent for lookup
// (spec §4.5 "Frame ... env"). Grounded on the teacher's Environment
// (a map plus a parent pointer, Get walking up the chain), generalized
// from string keys to interned names.Name and from deep-cloning to plain
// parent chaining, since a Frame's Env is never mutated after a child is
// pushed (each nested call gets its own child instead).
type Env struct {
	values map[names.Name]Value
	parent *Env
}

// NewEnv creates a root environment with no parent.
func NewEnv() *Env {
	return &Env{values: make(map[names.Name]Value)}
}

// Child creates a new environment whose lookups fall back to e.
func (e *Env) Child() *Env {
	return &Env{values: make(map[names.Name]Value), parent: e}
}

// Set binds n to v in this environment's own frame.
func (e *Env) Set(n names.Name, v Value) {
	e.values[n] = v
}

// Get looks up n, walking up the parent chain.
func (e *Env) Get(n names.Name) (Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.values[n]; ok {
			return v, true
		}
	}
	return nil, false
}
