package codegen

import "github.com/zc-lang/zc/internal/lir"

// selectBranch lowers a block's terminator, grounded on the original
// compiler's Call/Return/Jump handling in `lower_block`
// (crates/backend/src/codegen/x64/lower/block.rs) and JumpIf's
// condition-code-to-Jcc mapping from `crates/backend/src/codegen/x64/mod.rs`.
func (s *selector) selectBranch(pos int, order []lir.BlockId, b *lir.Block) []instruction {
	switch br := s.proc.Branches[b.Branch].(type) {
	case lir.Jump:
		return s.selectJump(br)
	case lir.JumpIf:
		return s.selectJumpIf(pos, order, br)
	case lir.Return:
		return s.selectReturn(br)
	case lir.Call:
		return s.selectCall(pos, order, br)
	case lir.Crash:
		return []instruction{{op: mUD2}}
	default:
		internalAssertion(s.sink, br.Span(), "no branch selection rule for %T", br)
		return nil
	}
}

func (s *selector) selectJump(br lir.Jump) []instruction {
	var out []instruction
	for _, a := range br.Args {
		out = append(out, s.move(reg(s.d.Registers[0].ID), s.valueFor(a)))
	}
	out = append(out, instruction{op: mJmp, dst: labelBlock(br.To)})
	return out
}

// selectJumpIf picks the Jcc whose condition matches Cond and falls
// through to Else when it does not hold (spec §4.9 "chooses the right
// conditional jump based on the condition code and the fall-through
// successor"); when Else is not the block emitted immediately
// afterward, a trailing unconditional Jmp is still required.
func (s *selector) selectJumpIf(pos int, order []lir.BlockId, br lir.JumpIf) []instruction {
	out := []instruction{
		{op: mCmp, dst: s.valueFor(br.Left), src: s.valueFor(br.Right)},
		{op: mJcc, dst: labelBlock(br.Then), cond: br.Cond},
	}
	if !isNextBlock(pos, order, br.Else) {
		out = append(out, instruction{op: mJmp, dst: labelBlock(br.Else)})
	}
	return out
}

func isNextBlock(pos int, order []lir.BlockId, id lir.BlockId) bool {
	return pos+1 < len(order) && order[pos+1] == id
}

// selectReturn LEAVEs (when the procedure has a frame), pops any
// continuation addresses this return path never used off the stack,
// and RETs; imm cleans up any caller-supplied continuation slots beyond
// the first when the ABI placed them below the return address (spec
// §4.9 "RET imm16 to clean continuation slots if needed").
func (s *selector) selectReturn(br lir.Return) []instruction {
	var out []instruction
	index := contIndex(s.proc, br.Cont)
	if s.proc.FrameSpace > 0 {
		out = append(out, instruction{op: mLeave})
	}
	for i := 0; i < index; i++ {
		out = append(out, instruction{op: mPop, dst: reg(s.d.Registers[0].ID)})
	}
	if extra := len(s.proc.Conts) - index - 1; extra > 0 {
		out = append(out, instruction{op: mRetImm, n: uint16(extra * 8)})
	} else {
		out = append(out, instruction{op: mRet})
	}
	return out
}

func contIndex(proc *lir.Procedure, cont lir.BlockId) int {
	for i, c := range proc.Conts {
		if c == cont {
			return i
		}
	}
	return 0
}

// selectCall pushes every continuation but the return continuation
// (rightmost first), then either falls into a plain CALL (when the
// return continuation is the block emitted immediately after this one,
// so its own epilogue handles the return address naturally) or an
// explicit push-then-JMP, or degrades to a tail-call JMP when there is
// no return continuation at all (spec §4.9).
func (s *selector) selectCall(pos int, order []lir.BlockId, br lir.Call) []instruction {
	var out []instruction

	var retCont *lir.BlockId
	for i := len(br.Conts) - 1; i >= 0; i-- {
		c := br.Conts[i]
		if retCont != nil {
			out = append(out, s.pushBlockAddress(*retCont)...)
		}
		cc := c
		retCont = &cc
	}

	fun := s.valueFor(br.Fun)
	if retCont == nil {
		out = append(out, instruction{op: mJmp, dst: fun})
		return out
	}

	if isNextBlock(pos, order, *retCont) {
		out = append(out, instruction{op: mCall, dst: fun})
		return out
	}
	out = append(out, s.pushBlockAddress(*retCont)...)
	out = append(out, instruction{op: mJmp, dst: fun})
	return out
}

// pushBlockAddress loads a block's address through the scratch register
// and pushes it, the shape a LEA-then-PUSH pair takes when the pushed
// value is a label rather than something already in a register.
func (s *selector) pushBlockAddress(id lir.BlockId) []instruction {
	scratch := reg(s.d.Registers[0].ID)
	return []instruction{
		{op: mLea, dst: scratch, src: labelBlock(id)},
		{op: mPush, src: scratch},
	}
}
