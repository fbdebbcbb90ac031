// Package liveness implements component C7: approximate per-block
// live-in/live-out register sets and precise per-register live ranges
// over LIR, both computed by backwards dataflow over the procedure's
// control-flow graph (spec §3 "Liveness facts", §4.7).
//
// Grounded on `hhramberg-go-vslc/src/ir/lir/live.go`'s backwards walk
// (kill definitions, generate uses, propagate to predecessors when a
// block's live set grows), generalized from vslc's single flat
// instruction list per function (no real block successors) to a genuine
// worklist fixed point over the spec's block graph (Jump/JumpIf/Call
// targets).
package liveness

import "github.com/zc-lang/zc/internal/lir"

// PositionKind discriminates the four places a register's liveness is
// tracked (spec §3 "Positions").
type PositionKind int

const (
	PosEntry PositionKind = iota
	PosParameter
	PosInstruction
	PosBranch
)

// LoadStore distinguishes where within one instruction a precise live
// range boundary falls: a definition starts the range at Store, a use
// extends it to Load (spec §4.7).
type LoadStore int

const (
	Load LoadStore = iota
	Store
)

// Position is one point in a procedure's control flow a register can be
// live at.
type Position struct {
	Kind  PositionKind
	Block lir.BlockId
	Index int
	LS    LoadStore
}

// Approximate computes, for every block in p, the set of registers live
// on entry and on exit, via the standard backwards fixed point: live_out
// is the union of successors' live_in; live_in kills definitions and
// adds uses walking the block backwards (spec §4.7).
//
// The returned live_in includes a block's own parameters (they are live
// from the moment control enters the block), but a block's parameters
// are never demanded of its predecessors: a predecessor already supplies
// them explicitly as Jump/Call arguments, tracked on the predecessor's
// own branch instead. The fixed point therefore propagates a block's
// live_in minus its own parameters to every predecessor's live_out.
func Approximate(p *lir.Procedure) (liveIn, liveOut map[lir.BlockId]map[lir.Register]bool) {
	liveIn = make(map[lir.BlockId]map[lir.Register]bool, len(p.Blocks))
	liveOut = make(map[lir.BlockId]map[lir.Register]bool, len(p.Blocks))
	demand := make(map[lir.BlockId]map[lir.Register]bool, len(p.Blocks))
	for _, b := range p.Blocks {
		liveIn[b.ID] = map[lir.Register]bool{}
		liveOut[b.ID] = map[lir.Register]bool{}
		demand[b.ID] = map[lir.Register]bool{}
	}
	preds := predecessors(p)

	worklist := make([]lir.BlockId, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		worklist = append(worklist, b.ID)
	}

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		b := p.Block(id)
		if b == nil {
			continue
		}

		out := map[lir.Register]bool{}
		for _, succ := range successors(p, id) {
			for r := range demand[succ] {
				out[r] = true
			}
		}
		liveOut[id] = out

		in := cloneSet(out)
		killGenBranch(p.Branches[b.Branch], in)
		for i := len(b.Instrs) - 1; i >= 0; i-- {
			killGenInstr(p.Instrs[b.Instrs[i]], in)
		}
		liveIn[id] = in

		ownDemand := cloneSet(in)
		for _, r := range b.Params {
			delete(ownDemand, r)
		}

		if !setEqual(ownDemand, demand[id]) {
			demand[id] = ownDemand
			worklist = append(worklist, preds[id]...)
		}
	}
	return liveIn, liveOut
}

// Precise computes, for every register, the set of Positions at which it
// is live (spec §3 "Liveness facts", §4.7 "Precise liveness"). clobbered
// is the architecture's call-clobbered register set (internal/arch);
// every register in it is forced live across every Call branch so the
// allocator avoids assigning it to something live across the call.
func Precise(p *lir.Procedure, clobbered []lir.Register) map[lir.Register]map[Position]bool {
	liveIn, liveOut := Approximate(p)
	ranges := make(map[lir.Register]map[Position]bool)
	ensure := func(r lir.Register) map[Position]bool {
		if ranges[r] == nil {
			ranges[r] = make(map[Position]bool)
		}
		return ranges[r]
	}

	for _, b := range p.Blocks {
		for r := range liveIn[b.ID] {
			pos := Position{Kind: PosParameter, Block: b.ID}
			if b.ID == p.Entry {
				pos = Position{Kind: PosEntry}
			}
			ensure(r)[pos] = true
		}
		for r := range liveOut[b.ID] {
			ensure(r)[Position{Kind: PosBranch, Block: b.ID}] = true
		}
		for _, r := range branchOperands(p.Branches[b.Branch]) {
			ensure(r)[Position{Kind: PosBranch, Block: b.ID}] = true
		}

		for i, idx := range b.Instrs {
			instr := p.Instrs[idx]
			store := Position{Kind: PosInstruction, Block: b.ID, Index: i, LS: Store}
			switch instr := instr.(type) {
			case lir.Copy:
				ensure(instr.Target)[store] = true
				markUse(instr.Value, b.ID, i, ensure)
			case lir.Index:
				ensure(instr.Target)[store] = true
				markUse(instr.Value, b.ID, i, ensure)
			case lir.Tuple:
				ensure(instr.Target)[store] = true
				for _, v := range instr.Values {
					markUse(v, b.ID, i, ensure)
				}
			case lir.Crash:
			}
		}

		if _, ok := p.Branches[b.Branch].(lir.Call); ok {
			for _, r := range clobbered {
				ensure(r)[Position{Kind: PosBranch, Block: b.ID}] = true
			}
		}
	}
	return ranges
}

// branchOperands returns the registers a branch itself reads, so Precise
// can mark them live at the branch position even when the value dies
// there (e.g. a Jump argument consumed by the block it targets, which
// never shows up in this block's liveOut).
func branchOperands(br lir.Branch) []lir.Register {
	var out []lir.Register
	add := func(o lir.Operand) {
		if r, ok := o.(lir.Register); ok {
			out = append(out, r)
		}
	}
	switch br := br.(type) {
	case lir.Call:
		add(br.Fun)
		for _, a := range br.Args {
			add(a)
		}
	case lir.Jump:
		for _, a := range br.Args {
			add(a)
		}
	case lir.JumpIf:
		add(br.Left)
		add(br.Right)
	case lir.Return:
		for _, v := range br.Values {
			add(v)
		}
	}
	return out
}

func markUse(o lir.Operand, block lir.BlockId, index int, ensure func(lir.Register) map[Position]bool) {
	if r, ok := o.(lir.Register); ok {
		ensure(r)[Position{Kind: PosInstruction, Block: block, Index: index, LS: Load}] = true
	}
}

func successors(p *lir.Procedure, id lir.BlockId) []lir.BlockId {
	b := p.Block(id)
	if b == nil {
		return nil
	}
	switch br := p.Branches[b.Branch].(type) {
	case lir.Jump:
		return []lir.BlockId{br.To}
	case lir.JumpIf:
		return []lir.BlockId{br.Then, br.Else}
	case lir.Call:
		return br.Conts
	default:
		return nil
	}
}

func predecessors(p *lir.Procedure) map[lir.BlockId][]lir.BlockId {
	preds := make(map[lir.BlockId][]lir.BlockId)
	for _, b := range p.Blocks {
		for _, s := range successors(p, b.ID) {
			preds[s] = append(preds[s], b.ID)
		}
	}
	return preds
}

func killGenInstr(i lir.Instr, live map[lir.Register]bool) {
	addOperand := func(o lir.Operand) {
		if r, ok := o.(lir.Register); ok {
			live[r] = true
		}
	}
	switch i := i.(type) {
	case lir.Copy:
		delete(live, i.Target)
		addOperand(i.Value)
	case lir.Index:
		delete(live, i.Target)
		addOperand(i.Value)
	case lir.Tuple:
		delete(live, i.Target)
		for _, v := range i.Values {
			addOperand(v)
		}
	case lir.Crash:
	}
}

func killGenBranch(br lir.Branch, live map[lir.Register]bool) {
	for _, r := range branchOperands(br) {
		live[r] = true
	}
}

func cloneSet(s map[lir.Register]bool) map[lir.Register]bool {
	out := make(map[lir.Register]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func setEqual(a, b map[lir.Register]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
