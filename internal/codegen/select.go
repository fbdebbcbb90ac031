package codegen

import (
	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/lir"
)

// mnemonic is an architecture-neutral-looking but x86-64-specific
// opcode; the encoder switches on it, the selector is the only thing
// that ever constructs one.
type mnemonic uint8

const (
	mMov mnemonic = iota
	mLea
	mPush
	mPop
	mCall
	mJmp
	mJcc
	mCmp
	mAdd
	mSub
	mLeave
	mRet
	mRetImm
	mUD2
)

// selOperand is an instruction's operand once instruction selection has
// committed to a concrete encoding shape: a physical register, a
// [rbp+disp] memory reference, an immediate, or a symbolic reference
// that becomes a Relocation (a named external value) or a Label (a
// same-procedure block, resolved against the block's own offset in the
// second encoding pass).
type selOperand struct {
	kind  operandKind
	reg   uint8
	disp  int32
	imm   int64
	name  string
	block lir.BlockId
}

type operandKind uint8

const (
	opRegister operandKind = iota
	opMemory
	opImmediate
	opLabelName
	opLabelBlock
)

func reg(id uint8) selOperand { return selOperand{kind: opRegister, reg: id} }
func mem(base uint8, disp int32) selOperand {
	return selOperand{kind: opMemory, reg: base, disp: disp}
}
func imm(v int64) selOperand              { return selOperand{kind: opImmediate, imm: v} }
func labelName(n string) selOperand       { return selOperand{kind: opLabelName, name: n} }
func labelBlock(b lir.BlockId) selOperand { return selOperand{kind: opLabelBlock, block: b} }

// instruction is one selected, not-yet-encoded machine instruction.
type instruction struct {
	op   mnemonic
	dst  selOperand
	src  selOperand
	cond lir.CondCode
	n    uint16 // RET imm16 operand
}

type selector struct {
	d     *arch.Descriptor
	proc  *lir.Procedure
	order []lir.BlockId
	sink  diag.Sink
}

// selectBlock turns one LIR block into architecture-specific
// instructions, grounded on the original compiler's `lower_block`
// (crates/backend/src/codegen/x64/lower/block.rs): a PROLOGUE is
// emitted only at the entry block and only when the procedure actually
// needs a frame, then each LIR instruction is translated in order,
// finally the block's branch.
func (s *selector) selectBlock(pos int, order []lir.BlockId, b *lir.Block) []instruction {
	var out []instruction

	if b.ID == s.proc.Entry && s.proc.FrameSpace > 0 {
		out = append(out,
			instruction{op: mPush, src: reg(s.d.FramePointer)},
			instruction{op: mMov, dst: reg(s.d.FramePointer), src: reg(s.d.StackPointer)},
			instruction{op: mSub, dst: reg(s.d.StackPointer), src: imm(int64(s.proc.FrameSpace))},
		)
	}

	for _, idx := range b.Instrs {
		out = append(out, s.selectInstr(s.proc.Instrs[idx])...)
	}

	out = append(out, s.selectBranch(pos, order, b)...)
	return out
}

func (s *selector) selectInstr(i lir.Instr) []instruction {
	switch v := i.(type) {
	case lir.Copy:
		dst := s.operandFor(v.Target)
		src := s.valueFor(v.Value)
		return []instruction{s.move(dst, src)}

	case lir.Index:
		dst := s.operandFor(v.Target)
		base := s.valueFor(v.Value)
		if base.kind != opRegister {
			// The value indexed into must already live in a register; a
			// frame-resident aggregate base is loaded through a scratch
			// register first (spec §4.9 does not special-case this, the
			// ABI scratch register rax is always free across a Copy/Index).
			scratch := reg(s.d.Registers[0].ID)
			out := []instruction{{op: mMov, dst: scratch, src: base}}
			out = append(out, instruction{op: mMov, dst: dst, src: mem(scratch.reg, int32(v.Offset))})
			return out
		}
		return []instruction{{op: mMov, dst: dst, src: mem(base.reg, int32(v.Offset))}}

	case lir.Tuple:
		// A Tuple that survives regalloc (it was never exploded by
		// Flatten because it escapes its block, spec §4.6) is written
		// field by field into its target's frame slot. Field writes are
		// plain MOVs, not PUSH/POPs: the PUSH/POP special case is a Copy
		// thing only (spec §4.9), not how an aggregate's fields land.
		var out []instruction
		fr, ok := v.Target.(lir.FrameReg)
		if !ok {
			internalAssertion(s.sink, v.Span(), "Tuple target %v did not receive a frame slot", v.Target)
			return nil
		}
		off := 0
		for _, val := range v.Values {
			out = append(out, instruction{op: mMov, dst: mem(s.d.FramePointer, int32(fr.Offset+off)), src: s.valueFor(val)})
			off += 8
		}
		return out

	case lir.Crash:
		return []instruction{{op: mUD2}}

	default:
		internalAssertion(s.sink, i.Span(), "no instruction selection rule for %T", i)
		return nil
	}
}

// move picks MOV, except the argument-slot PUSH/POP special case (spec
// §4.9): a Copy into or out of an Argument-frame register whose offset
// sits at the current top of the argument area and a general register
// source/destination becomes a PUSH/POP that both moves the value and
// adjusts rsp, instead of a MOV that would leave rsp untouched.
func (s *selector) move(dst, src selOperand) instruction {
	if dst.kind == opMemory && dst.reg == s.d.StackPointer && dst.disp == 0 {
		return instruction{op: mPush, src: src}
	}
	if src.kind == opMemory && src.reg == s.d.StackPointer && src.disp == 0 {
		return instruction{op: mPop, dst: dst}
	}
	return instruction{op: mMov, dst: dst, src: src}
}

func (s *selector) operandFor(r lir.Register) selOperand {
	switch v := r.(type) {
	case lir.PhysicalReg:
		return reg(v.ID)
	case lir.FrameReg:
		switch v.Kind {
		case lir.FrameArgument:
			// The argument area sits just below the return address at
			// call time; this selector addresses it relative to rsp.
			// `selectCall` itself pushes only continuation addresses; a
			// Copy into the slot at offset 0 becomes a PUSH via `move`.
			return mem(s.d.StackPointer, int32(v.Offset))
		default:
			return mem(s.d.FramePointer, int32(-(v.Offset + 8)))
		}
	default:
		return selOperand{}
	}
}

func (s *selector) valueFor(o lir.Operand) selOperand {
	switch v := o.(type) {
	case lir.Const:
		return imm(v.Val)
	case lir.Label:
		return labelName(v.Name)
	case lir.Register:
		return s.operandFor(v)
	default:
		return selOperand{}
	}
}
