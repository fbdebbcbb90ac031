package lir

import (
	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/types"
)

// Flatten performs the first half of component C6: it eliminates local
// Tuple/Proj round-trips where a Proj immediately consumes a Tuple bound
// earlier in the same block, replacing the projection with a direct
// reference to the tuple's constituent value (spec §4.6 "Proj
// disappears"). A Tuple that no longer has any other use after every
// such Proj is removed.
//
// Values that escape their defining block (returned, passed to a call,
// captured by a nested Function) are left as real Tuple/Proj pairs:
// full scalar register-per-component explosion only pays off when every
// consumer is resolved at lowering time, and LIR already has a Tuple
// instruction and an Index instruction for the aggregate case (spec
// §4.9), so nothing downstream requires eliminating them eagerly. This
// is a narrower reading of §4.6 than a full sparse-conditional SROA
// pass; see DESIGN.md.
//
// Grounded on the local peephole shape of
// `hhramberg-go-vslc/src/ir/lir/transform.go` (rewrite-in-place passes
// over an instruction list, tracking which definitions are still used).
func Flatten(d *mir.Decls) *mir.Decls {
	out := make([]mir.ValueDef, len(d.Values))
	for i, vd := range d.Values {
		vd.Body = flattenBlock(vd.Body)
		out[i] = vd
	}
	return &mir.Decls{Values: out}
}

func flattenBlock(b *mir.Block) *mir.Block {
	tuples := make(map[uint32][]mir.Value) // keyed by the underlying names.Name

	kept := make([]mir.Statement, 0, len(b.Statements))
	used := make(map[uint32]bool)

	rewritten := make([]mir.Statement, len(b.Statements))
	copy(rewritten, b.Statements)

	for i, stmt := range rewritten {
		if t, ok := stmt.(mir.Tuple); ok {
			tuples[uint32(t.Name)] = t.Values
		}
		if p, ok := stmt.(mir.Proj); ok {
			if ref, ok := p.Of.(mir.NameRef); ok {
				if vals, ok := tuples[uint32(ref.Name)]; ok && p.At < len(vals) {
					rewritten[i] = mir.Coerce{Base: p.Base, Name: p.Name, From: vals[p.At], State: types.CoercionEqual}
					continue
				}
			}
		}
	}

	for _, stmt := range rewritten {
		markUses(stmt, used)
	}
	markUses(b.Branch, used)

	for _, stmt := range rewritten {
		if t, ok := stmt.(mir.Tuple); ok {
			if !used[uint32(t.Name)] {
				continue
			}
		}
		if fn, ok := stmt.(mir.Function); ok {
			fn.Body = flattenBlock(fn.Body)
			kept = append(kept, fn)
			continue
		}
		kept = append(kept, stmt)
	}
	return &mir.Block{Statements: kept, Branch: b.Branch}
}

// markUses records every name a statement's operands (or a branch's
// operands) reference, so flattenBlock can drop a Tuple whose only
// consumers were folded away.
func markUses(n interface{}, used map[uint32]bool) {
	markValue := func(v mir.Value) {
		if ref, ok := v.(mir.NameRef); ok {
			used[uint32(ref.Name)] = true
		}
	}
	switch s := n.(type) {
	case mir.Apply:
		markValue(s.Fun)
		for _, a := range s.Args {
			markValue(a)
		}
	case mir.Tuple:
		for _, v := range s.Values {
			markValue(v)
		}
	case mir.Proj:
		markValue(s.Of)
	case mir.Coerce:
		markValue(s.From)
	case mir.Return:
		for _, v := range s.Values {
			markValue(v)
		}
	case mir.Jump:
		markValue(s.Arg)
	}
}
