// Package regalloc implements component C8: it assigns every virtual
// register in a procedure to either a physical register or a frame
// slot (spec §4.8 "Stack/frame allocator"), then rewrites the
// procedure to replace every VirtualReg with its assigned destination.
//
// Split into Assign (decide) and Apply (rewrite) per the original
// Rust implementation's `stack_allocation` module, which keeps the
// `Allocation` (a plain `{mapping, frame_space}` value) separate from
// the `Applier` that walks the procedure's blocks rewriting registers
// in place (crates/backend/src/asm/alloc/stack_allocation/apply.rs).
// The interference test that decides when a virtual register can share
// a physical register with another is grounded on
// `hhramberg-go-vslc/src/backend/lir/regalloc.go`'s live-set-snapshot
// neighbour computation, generalized to a greedy single-pass coloring
// (assign the lowest free non-clobbered register not already taken by
// a live neighbour, else fall back to a frame slot) rather than the
// teacher's full Chaitin simplify/select-with-retries, since this
// compiler cares about correctness of the policy's edge cases (ABI
// slots, zero-sized types, call-boundary spills) more than the quality
// of the physical-register assignment itself.
package regalloc

import (
	"sort"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/lir"
	"github.com/zc-lang/zc/internal/liveness"
	"github.com/zc-lang/zc/internal/types"
)

// Place is where the allocator put a virtual register (spec §3
// Registers / FrameReg's FrameKind, plus the physical-register case).
type Place interface{ place() }

// PhysicalPlace assigns a virtual register a physical register for its
// whole lifetime.
type PhysicalPlace struct{ ID uint8 }

// ArgumentPlace is a call argument's slot at one call site; Total is the
// byte footprint of every argument at that site (spec §4.8).
type ArgumentPlace struct{ Offset, Total int }

// ParameterPlace is a function parameter's slot in the callee's frame;
// Total is the byte footprint of the whole parameter list (spec §4.8).
type ParameterPlace struct{ Offset, Total int }

// LocalPlace is an ordinary stack slot, packed densely with other
// locals (spec §4.8).
type LocalPlace struct{ Offset int }

func (PhysicalPlace) place()  {}
func (ArgumentPlace) place()  {}
func (ParameterPlace) place() {}
func (LocalPlace) place()     {}

// Allocation is the decided destination of every virtual register in a
// procedure, plus the procedure's total stack footprint.
type Allocation struct {
	Mapping    map[uint32]Place
	FrameSpace int
}

// Assign decides a Place for every virtual register referenced in proc.
// store resolves a VirtualReg's TypeId to its byte size; d is the
// target's register file and calling convention.
func Assign(store *types.Store, d *arch.Descriptor, proc *lir.Procedure) Allocation {
	mapping := make(map[uint32]Place)
	assigned := make(map[uint32]bool)

	// Function parameters: Parameter{offset,total} per the convention,
	// regardless of whether a physical register could hold them (a later
	// pass, not this one, decides when the callee prologue can load
	// straight from a parameter-passing register instead).
	paramTotal := 0
	for _, r := range proc.Params {
		if vr, ok := r.(lir.VirtualReg); ok {
			paramTotal += sizeOf(store, vr.Type)
		}
	}
	offset := 0
	for _, r := range proc.Params {
		vr, ok := r.(lir.VirtualReg)
		if !ok {
			continue
		}
		sz := sizeOf(store, vr.Type)
		if sz == 0 {
			assigned[vr.ID] = true
			continue
		}
		mapping[vr.ID] = ParameterPlace{Offset: offset, Total: paramTotal}
		assigned[vr.ID] = true
		offset += sz
	}

	// Call arguments: Argument{offset,total} per call site.
	maxArgTotal := 0
	for _, br := range proc.Branches {
		call, ok := br.(lir.Call)
		if !ok {
			continue
		}
		total := 0
		for _, a := range call.Args {
			if vr, ok := a.(lir.VirtualReg); ok {
				total += sizeOf(store, vr.Type)
			}
		}
		if total > maxArgTotal {
			maxArgTotal = total
		}
		off := 0
		for _, a := range call.Args {
			vr, ok := a.(lir.VirtualReg)
			if !ok {
				continue
			}
			sz := sizeOf(store, vr.Type)
			if sz == 0 {
				assigned[vr.ID] = true
				continue
			}
			if !assigned[vr.ID] {
				mapping[vr.ID] = ArgumentPlace{Offset: off, Total: total}
				assigned[vr.ID] = true
			}
			off += sz
		}
	}

	// Everything else: prefer a physical register, fall back to a Local
	// frame slot, following the live-set interference test below.
	ranges := liveness.Precise(proc, clobberedRegs(d))
	order := allVirtualRegs(proc)
	tupleTargets := make(map[uint32]bool)
	for _, in := range proc.Instrs {
		if t, ok := in.(lir.Tuple); ok {
			if vr, ok := t.Target.(lir.VirtualReg); ok {
				tupleTargets[vr.ID] = true
			}
		}
	}

	localOffset := 0
	for _, vr := range order {
		if assigned[vr.ID] {
			continue
		}
		sz := sizeOf(store, vr.Type)
		if sz == 0 {
			assigned[vr.ID] = true
			continue
		}
		if tupleTargets[vr.ID] || crossesCall(proc, ranges[vr]) {
			// A Tuple's target always gets a Local slot: codegen writes
			// its fields into frame memory. A register live across a call can never keep a
			// call-clobbered physical register; route it straight to a
			// Local slot rather than attempt a physical assignment that
			// the spill rule would immediately undo (spec §4.8 edge case).
			mapping[vr.ID] = LocalPlace{Offset: localOffset}
			localOffset += sz
			assigned[vr.ID] = true
			continue
		}
		if id, ok := pickFreeRegister(d, ranges, mapping, vr); ok {
			mapping[vr.ID] = PhysicalPlace{ID: id}
			assigned[vr.ID] = true
			continue
		}
		mapping[vr.ID] = LocalPlace{Offset: localOffset}
		localOffset += sz
		assigned[vr.ID] = true
	}

	frameSpace := localOffset
	if maxArgTotal > frameSpace {
		frameSpace = maxArgTotal
	}

	return Allocation{Mapping: mapping, FrameSpace: frameSpace}
}

// crossesCall reports whether a register's live range includes the
// branch position of a block whose branch is specifically a Call, which
// forces it out of a physical register (spec §4.7, §4.8). A range that
// merely reaches an ordinary Jump/JumpIf/Return branch is not affected:
// only a Call can clobber caller-saved registers.
func crossesCall(proc *lir.Procedure, positions map[liveness.Position]bool) bool {
	for pos := range positions {
		if pos.Kind != liveness.PosBranch {
			continue
		}
		b := proc.Block(pos.Block)
		if b == nil {
			continue
		}
		if _, ok := proc.Branches[b.Branch].(lir.Call); ok {
			return true
		}
	}
	return false
}

// pickFreeRegister returns the lowest-id non-clobbered general register
// not already held by a virtual register whose live range overlaps vr's
// (approximated, like the teacher's RIG, by sharing any live Position).
func pickFreeRegister(d *arch.Descriptor, ranges map[lir.Register]map[liveness.Position]bool, mapping map[uint32]Place, vr lir.VirtualReg) (uint8, bool) {
	candidates := generalRegisters(d)
	mine := ranges[vr]
	for _, id := range candidates {
		taken := false
		for otherID, place := range mapping {
			phys, ok := place.(PhysicalPlace)
			if !ok || phys.ID != id {
				continue
			}
			if interferes(mine, ranges[lir.VirtualReg{ID: otherID}]) {
				taken = true
				break
			}
		}
		if !taken {
			return id, true
		}
	}
	return 0, false
}

func interferes(a, b map[liveness.Position]bool) bool {
	for pos := range a {
		if b[pos] {
			return true
		}
	}
	return false
}

func clobberedRegs(d *arch.Descriptor) []lir.Register {
	out := make([]lir.Register, len(d.CallClobbered))
	for i, id := range d.CallClobbered {
		out[i] = lir.PhysicalReg{ID: id}
	}
	return out
}

func generalRegisters(d *arch.Descriptor) []uint8 {
	skip := map[uint8]bool{d.StackPointer: true, d.FramePointer: true}
	for _, id := range d.CallClobbered {
		skip[id] = true
	}
	var out []uint8
	for _, r := range d.Registers {
		if !skip[r.ID] {
			out = append(out, r.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// allVirtualRegs collects every VirtualReg a procedure's instructions,
// branches, and block params mention, in block/instruction order so
// allocation is deterministic.
func allVirtualRegs(proc *lir.Procedure) []lir.VirtualReg {
	var out []lir.VirtualReg
	seen := make(map[uint32]bool)
	add := func(r lir.Register) {
		vr, ok := r.(lir.VirtualReg)
		if !ok || seen[vr.ID] {
			return
		}
		seen[vr.ID] = true
		out = append(out, vr)
	}
	addOperand := func(o lir.Operand) {
		if r, ok := o.(lir.Register); ok {
			add(r)
		}
	}

	for _, b := range proc.Blocks {
		for _, p := range b.Params {
			add(p)
		}
		for _, idx := range b.Instrs {
			switch i := proc.Instrs[idx].(type) {
			case lir.Copy:
				add(i.Target)
				addOperand(i.Value)
			case lir.Index:
				add(i.Target)
				addOperand(i.Value)
			case lir.Tuple:
				add(i.Target)
				for _, v := range i.Values {
					addOperand(v)
				}
			}
		}
		switch br := proc.Branches[b.Branch].(type) {
		case lir.Call:
			addOperand(br.Fun)
			for _, a := range br.Args {
				addOperand(a)
			}
		case lir.Jump:
			for _, a := range br.Args {
				addOperand(a)
			}
		case lir.JumpIf:
			addOperand(br.Left)
			addOperand(br.Right)
		case lir.Return:
			for _, v := range br.Values {
				addOperand(v)
			}
		}
	}
	return out
}

// sizeOf returns the byte footprint of a low type. A range whose lo and
// hi bound coincide carries no runtime information (its one possible
// value is known at compile time), so it occupies no slot (spec §4.8
// "zero-sized types"). types.InvalidTypeId shows up on registers this
// pipeline has not yet propagated a resolved type onto; it defaults to a
// machine word rather than refusing to allocate.
func sizeOf(store *types.Store, id types.TypeId) int {
	if id == types.InvalidTypeId {
		return 8
	}
	shape := store.ShapeOf(id)
	switch shape.Kind {
	case types.ShapeRange:
		if shape.Range.Lo == shape.Range.Hi {
			return 0
		}
		return 8
	case types.ShapeProduct:
		total := 0
		for _, e := range shape.Elems {
			total += sizeOf(store, e)
		}
		return total
	case types.ShapeRecord:
		total := 0
		for _, f := range shape.Fields {
			total += sizeOf(store, f.Type)
		}
		return total
	case types.ShapeFunction, types.ShapeNamed:
		return 8
	default:
		return 8
	}
}
