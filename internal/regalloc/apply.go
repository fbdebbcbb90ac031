package regalloc

import "github.com/zc-lang/zc/internal/lir"

// Apply rewrites proc in place, replacing every VirtualReg with the
// Place alloc assigned it: a physical register becomes a PhysicalReg, a
// frame placement becomes the matching FrameReg kind. Registers with no
// entry in alloc.Mapping (the zero-sized case, spec §4.8) are dropped
// from the instruction that defined them.
//
// Grounded on the original Rust `Applier.apply_reg`/`apply_inst`, which
// walks a procedure's blocks rewriting every Register::Virtual to
// Register::Frame via the same kind of mapping
// (crates/backend/src/asm/alloc/stack_allocation/apply.rs); this port
// additionally resolves to a PhysicalReg when Assign picked one, since
// this allocator supports both destinations.
func Apply(alloc Allocation, proc *lir.Procedure) *lir.Procedure {
	out := &lir.Procedure{
		Name:       proc.Name,
		Entry:      proc.Entry,
		Exits:      proc.Exits,
		Conts:      proc.Conts,
		FrameSpace: alloc.FrameSpace,
	}

	reg := func(r lir.Register) (lir.Register, bool) {
		vr, ok := r.(lir.VirtualReg)
		if !ok {
			return r, true
		}
		place, ok := alloc.Mapping[vr.ID]
		if !ok {
			return nil, false
		}
		switch p := place.(type) {
		case PhysicalPlace:
			return lir.PhysicalReg{ID: p.ID}, true
		case ParameterPlace:
			return lir.FrameReg{Kind: lir.FrameParameter, Offset: p.Offset, Total: p.Total, Type: vr.Type}, true
		case ArgumentPlace:
			return lir.FrameReg{Kind: lir.FrameArgument, Offset: p.Offset, Total: p.Total, Type: vr.Type}, true
		case LocalPlace:
			return lir.FrameReg{Kind: lir.FrameLocal, Offset: p.Offset, Type: vr.Type}, true
		default:
			return r, true
		}
	}
	operand := func(o lir.Operand) lir.Operand {
		r, ok := o.(lir.Register)
		if !ok {
			return o
		}
		mapped, ok := reg(r)
		if !ok {
			return lir.Const{Val: 0}
		}
		return mapped
	}

	out.Params = mapRegisters(proc.Params, reg)

	out.Instrs = make([]lir.Instr, 0, len(proc.Instrs))
	out.Branches = make([]lir.Branch, 0, len(proc.Branches))
	out.Blocks = make([]lir.Block, 0, len(proc.Blocks))

	for _, b := range proc.Blocks {
		var instrs []int
		for _, idx := range b.Instrs {
			switch i := proc.Instrs[idx].(type) {
			case lir.Copy:
				target, ok := reg(i.Target)
				if !ok {
					continue
				}
				out.Instrs = append(out.Instrs, lir.Copy{Base: i.Base, Target: target, Value: operand(i.Value)})
				instrs = append(instrs, len(out.Instrs)-1)
			case lir.Index:
				target, ok := reg(i.Target)
				if !ok {
					continue
				}
				out.Instrs = append(out.Instrs, lir.Index{Base: i.Base, Target: target, Value: operand(i.Value), Offset: i.Offset})
				instrs = append(instrs, len(out.Instrs)-1)
			case lir.Tuple:
				target, ok := reg(i.Target)
				if !ok {
					continue
				}
				out.Instrs = append(out.Instrs, lir.Tuple{Base: i.Base, Target: target, Values: mapOperands(i.Values, operand)})
				instrs = append(instrs, len(out.Instrs)-1)
			case lir.Crash:
				out.Instrs = append(out.Instrs, i)
				instrs = append(instrs, len(out.Instrs)-1)
			}
		}

		var branch lir.Branch
		switch br := proc.Branches[b.Branch].(type) {
		case lir.Call:
			branch = lir.Call{Base: br.Base, Fun: operand(br.Fun), Args: mapOperands(br.Args, operand), Conts: br.Conts}
		case lir.Jump:
			branch = lir.Jump{Base: br.Base, To: br.To, Args: mapOperands(br.Args, operand)}
		case lir.JumpIf:
			branch = lir.JumpIf{Base: br.Base, Left: operand(br.Left), Right: operand(br.Right), Cond: br.Cond, Args: mapOperands(br.Args, operand), Then: br.Then, Else: br.Else}
		case lir.Return:
			branch = lir.Return{Base: br.Base, Cont: br.Cont, Values: mapOperands(br.Values, operand)}
		default:
			branch = lir.Crash{}
		}
		out.Branches = append(out.Branches, branch)

		out.Blocks = append(out.Blocks, lir.Block{
			ID:     b.ID,
			Params: mapRegisters(b.Params, reg),
			Instrs: instrs,
			Branch: len(out.Branches) - 1,
		})
	}

	return out
}

func mapRegisters(rs []lir.Register, f func(lir.Register) (lir.Register, bool)) []lir.Register {
	out := make([]lir.Register, 0, len(rs))
	for _, r := range rs {
		if mapped, ok := f(r); ok {
			out = append(out, mapped)
		}
	}
	return out
}

func mapOperands(os []lir.Operand, f func(lir.Operand) lir.Operand) []lir.Operand {
	out := make([]lir.Operand, len(os))
	for i, o := range os {
		out[i] = f(o)
	}
	return out
}
