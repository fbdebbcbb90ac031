package codegen

import "github.com/zc-lang/zc/internal/lir"

// encode turns every block's selected instructions into one contiguous
// byte buffer, resolving same-procedure block references to PC-relative
// displacements and named references to Relocations (spec §4.9 "block
// references within the same procedure are emitted as labels resolved
// in a second pass").
//
// This is a classic two-pass assembler: pass one walks the blocks in
// emission order purely to learn each block's offset (instructions are
// fixed-shape enough that sizing them does not require knowing any
// offset), pass two re-walks and emits for real, now able to compute a
// Jcc/Jmp/Call's displacement against the already-known target offset.
func encode(name string, order []lir.BlockId, blocks map[lir.BlockId][]instruction) Object {
	offsets := make(map[lir.BlockId]int, len(order))
	cursor := 0
	for _, id := range order {
		offsets[id] = cursor
		for _, in := range blocks[id] {
			cursor += sizeOfInstruction(in)
		}
	}

	var code []byte
	var relocs []Relocation
	for _, id := range order {
		for _, in := range blocks[id] {
			code, relocs = appendInstruction(code, relocs, in, offsets)
		}
	}

	return Object{Name: name, Code: code, Relocs: relocs}
}

// x86Encoding maps an internal/arch register id (an arbitrary bookkeeping
// number the YAML descriptor assigns) onto the 4-bit encoding number the
// ModRM/SIB/REX fields and B8+r-style opcodes actually carry. Only rax,
// rbx, rcx, rdx, rsi, rdi, rbp, rsp need remapping; r8-r15 already share
// their descriptor id with their hardware encoding.
var x86Encoding = map[uint8]uint8{
	0: 0, // rax
	1: 3, // rbx
	2: 1, // rcx
	3: 2, // rdx
	4: 6, // rsi
	5: 7, // rdi
	6: 5, // rbp
	7: 4, // rsp
}

func enc(id uint8) uint8 {
	if e, ok := x86Encoding[id]; ok {
		return e
	}
	return id
}

// sizeOfInstruction is the byte length appendInstruction would produce
// for in; kept in lockstep with it by construction (both switch on the
// same mnemonic set) rather than by re-running the encoder, since a
// displacement's width never depends on its value for any instruction
// this selector emits (every relative branch uses rel32, matching the
// original backend's unconditional choice of the iced-x86 long-form
// encodings).
func sizeOfInstruction(in instruction) int {
	switch in.op {
	case mMov:
		return sizeMov(in)
	case mLea:
		return 7 // REX.W 8D /r disp32
	case mPush:
		return sizePush(in)
	case mPop:
		return sizePop(in)
	case mCall:
		return sizeBranchTarget(in.dst, 5) // E8 rel32, or FF /2 through a register
	case mJmp:
		return sizeBranchTarget(in.dst, 5) // E9 rel32, or FF /4
	case mJcc:
		return 6 // 0F 8x rel32
	case mCmp:
		return sizeAluRegMem(in)
	case mAdd, mSub:
		return 7 // REX 81 /r imm32
	case mLeave:
		return 1
	case mRet:
		return 1
	case mRetImm:
		return 3
	case mUD2:
		return 2
	default:
		return 0
	}
}

func sizeBranchTarget(o selOperand, relForm int) int {
	if o.kind == opRegister {
		return 3 // REX FF /2 or /4, ModRM only, no SIB/disp for a bare register
	}
	return relForm
}

func sizeMov(in instruction) int {
	switch {
	case in.dst.kind == opRegister && in.src.kind == opRegister:
		return 3 // REX.W 89 /r
	case in.dst.kind == opRegister && in.src.kind == opMemory:
		return 3 + memSuffixSize(in.src.reg, in.src.disp) // REX.W 8B /r [+SIB][+disp]
	case in.dst.kind == opMemory && in.src.kind == opRegister:
		return 3 + memSuffixSize(in.dst.reg, in.dst.disp) // REX.W 89 /r [+SIB][+disp]
	case in.dst.kind == opRegister && (in.src.kind == opImmediate || in.src.kind == opLabelName || in.src.kind == opLabelBlock):
		return 10 // REX.W B8+r imm64
	case in.dst.kind == opMemory && in.src.kind == opImmediate:
		return 3 + memSuffixSize(in.dst.reg, in.dst.disp) + 4 // REX.W C7 /0 [+SIB][+disp] imm32
	default:
		return 3
	}
}

func sizePush(in instruction) int {
	switch in.src.kind {
	case opRegister:
		if in.src.reg >= 8 {
			return 2
		}
		return 1 // 50+r
	case opMemory:
		return 2 + memSuffixSize(in.src.reg, in.src.disp)
	case opImmediate:
		return 5 // 68 imm32
	default:
		return 1
	}
}

func sizePop(in instruction) int {
	if in.dst.kind == opMemory {
		return 2 + memSuffixSize(in.dst.reg, in.dst.disp)
	}
	if in.dst.reg >= 8 {
		return 2
	}
	return 1 // 58+r
}

func sizeAluRegMem(in instruction) int {
	if in.src.kind == opImmediate {
		return 7
	}
	return 3
}

// memSuffixSize is the byte count of a [base+disp] operand's encoding
// beyond its opcode+ModRM byte: a SIB byte when base is rsp or r12
// (encoding 4, the ModRM rm value that always means "read the SIB byte
// instead of a bare register"), plus a disp8 or disp32.
func memSuffixSize(base uint8, disp int32) int {
	n := 0
	if enc(base)&7 == 4 {
		n++
	}
	n += dispSize(disp)
	return n
}

func dispSize(d int32) int {
	if d == 0 {
		return 0
	}
	if d >= -128 && d <= 127 {
		return 1
	}
	return 4
}

func appendInstruction(code []byte, relocs []Relocation, in instruction, offsets map[lir.BlockId]int) ([]byte, []Relocation) {
	switch in.op {
	case mMov:
		return appendMov(code, relocs, in, offsets)
	case mLea:
		return appendLea(code, relocs, in, offsets)
	case mPush:
		return appendPush(code, relocs, in)
	case mPop:
		return appendPop(code, relocs, in)
	case mCall:
		return appendBranch(code, relocs, in, 0xE8, offsets)
	case mJmp:
		return appendBranch(code, relocs, in, 0xE9, offsets)
	case mJcc:
		return appendJcc(code, relocs, in, offsets)
	case mCmp:
		return appendCmp(code, relocs, in)
	case mAdd:
		return appendAluImm(code, relocs, in, 0)
	case mSub:
		return appendAluImm(code, relocs, in, 5)
	case mLeave:
		return append(code, 0xC9), relocs
	case mRet:
		return append(code, 0xC3), relocs
	case mRetImm:
		return append(code, 0xC2, byte(in.n), byte(in.n>>8)), relocs
	case mUD2:
		return append(code, 0x0F, 0x0B), relocs
	default:
		return code, relocs
	}
}

func rex(w bool, regField, rm uint8) byte {
	b := byte(0x40)
	if w {
		b |= 0x08
	}
	if regField&0x8 != 0 {
		b |= 0x04
	}
	if rm&0x8 != 0 {
		b |= 0x01
	}
	return b
}

func modrm(mod, regField, rm uint8) byte {
	return (mod << 6) | ((regField & 7) << 3) | (rm & 7)
}

// appendMemOperand appends the ModRM[+SIB][+disp] suffix for a
// [base+disp] memory operand whose register field carries regField (an
// opcode extension digit or a source/destination register).
func appendMemOperand(code []byte, regField, base uint8, disp int32) []byte {
	b := enc(base)
	mod := uint8(2)
	if disp == 0 {
		mod = 0
	} else if disp >= -128 && disp <= 127 {
		mod = 1
	}
	code = append(code, modrm(mod, regField, b))
	if b&7 == 4 {
		// rsp/r12 as a base requires an explicit SIB byte (scale=1,
		// index=none, base=b) since ModRM's rm=4 is reserved for that.
		code = append(code, (0<<6)|(4<<3)|(b&7))
	}
	switch mod {
	case 1:
		code = append(code, byte(disp))
	case 2:
		code = appendImm32(code, uint32(disp))
	}
	return code
}

func appendMov(code []byte, relocs []Relocation, in instruction, offsets map[lir.BlockId]int) ([]byte, []Relocation) {
	switch {
	case in.dst.kind == opRegister && in.src.kind == opRegister:
		code = append(code, rex(true, enc(in.src.reg), enc(in.dst.reg)), 0x89, modrm(3, enc(in.src.reg), enc(in.dst.reg)))
	case in.dst.kind == opRegister && in.src.kind == opMemory:
		code = append(code, rex(true, enc(in.dst.reg), enc(in.src.reg)), 0x8B)
		code = appendMemOperand(code, enc(in.dst.reg), in.src.reg, in.src.disp)
	case in.dst.kind == opMemory && in.src.kind == opRegister:
		code = append(code, rex(true, enc(in.src.reg), enc(in.dst.reg)), 0x89)
		code = appendMemOperand(code, enc(in.src.reg), in.dst.reg, in.dst.disp)
	case in.dst.kind == opRegister && in.src.kind == opImmediate:
		code = append(code, rex(true, 0, enc(in.dst.reg)), 0xB8+(enc(in.dst.reg)&7))
		code = appendImm64(code, uint64(in.src.imm))
	case in.dst.kind == opRegister && in.src.kind == opLabelName:
		code = append(code, rex(true, 0, enc(in.dst.reg)), 0xB8+(enc(in.dst.reg)&7))
		relocs = append(relocs, Relocation{Name: in.src.name, Offset: len(code), Kind: Absolute})
		code = appendImm64(code, 0)
	case in.dst.kind == opRegister && in.src.kind == opLabelBlock:
		code = append(code, rex(true, 0, enc(in.dst.reg)), 0xB8+(enc(in.dst.reg)&7))
		code = appendImm64(code, uint64(int64(offsets[in.src.block])))
	case in.dst.kind == opMemory && in.src.kind == opImmediate:
		code = append(code, rex(true, 0, enc(in.dst.reg)), 0xC7)
		code = appendMemOperand(code, 0, in.dst.reg, in.dst.disp)
		code = appendImm32(code, uint32(in.src.imm))
	}
	return code, relocs
}

func appendLea(code []byte, relocs []Relocation, in instruction, offsets map[lir.BlockId]int) ([]byte, []Relocation) {
	code = append(code, rex(true, enc(in.dst.reg), 5), 0x8D, modrm(0, enc(in.dst.reg), 5))
	start := len(code) + 4
	switch in.src.kind {
	case opLabelName:
		relocs = append(relocs, Relocation{Name: in.src.name, Offset: len(code), Kind: RelativeNext})
		code = appendImm32(code, 0)
	case opLabelBlock:
		rel := int32(offsets[in.src.block] - start)
		code = appendImm32(code, uint32(rel))
	default:
		code = appendImm32(code, 0)
	}
	return code, relocs
}

func appendPush(code []byte, relocs []Relocation, in instruction) ([]byte, []Relocation) {
	switch in.src.kind {
	case opRegister:
		if in.src.reg >= 8 {
			code = append(code, rex(false, 0, enc(in.src.reg)))
		}
		code = append(code, 0x50+(enc(in.src.reg)&7))
	case opMemory:
		code = append(code, 0xFF)
		code = appendMemOperand(code, 6, in.src.reg, in.src.disp)
	case opImmediate:
		code = append(code, 0x68)
		code = appendImm32(code, uint32(in.src.imm))
	}
	return code, relocs
}

func appendPop(code []byte, relocs []Relocation, in instruction) ([]byte, []Relocation) {
	if in.dst.kind == opMemory {
		code = append(code, 0x8F)
		code = appendMemOperand(code, 0, in.dst.reg, in.dst.disp)
		return code, relocs
	}
	if in.dst.reg >= 8 {
		code = append(code, rex(false, 0, enc(in.dst.reg)))
	}
	code = append(code, 0x58+(enc(in.dst.reg)&7))
	return code, relocs
}

// appendBranch emits CALL/JMP: opcode+rel32 to a block label or a named
// reference (a relocation), or FF /2 (call) or FF /4 (jmp) through a
// register when the callee address is already loaded.
func appendBranch(code []byte, relocs []Relocation, in instruction, op byte, offsets map[lir.BlockId]int) ([]byte, []Relocation) {
	if in.dst.kind == opRegister {
		ext := uint8(2)
		if op == 0xE9 {
			ext = 4
		}
		code = append(code, rex(false, 0, enc(in.dst.reg)), 0xFF, modrm(3, ext, enc(in.dst.reg)))
		return code, relocs
	}
	code = append(code, op)
	start := len(code) + 4
	switch in.dst.kind {
	case opLabelBlock:
		rel := int32(offsets[in.dst.block] - start)
		code = appendImm32(code, uint32(rel))
	case opLabelName:
		relocs = append(relocs, Relocation{Name: in.dst.name, Offset: len(code), Kind: Relative})
		code = appendImm32(code, 0)
	default:
		code = appendImm32(code, 0)
	}
	return code, relocs
}

var jccOpcode = map[lir.CondCode]byte{
	lir.CondEq: 0x84,
	lir.CondNe: 0x85,
	lir.CondLt: 0x8C,
	lir.CondLe: 0x8E,
	lir.CondGt: 0x8F,
	lir.CondGe: 0x8D,
}

func appendJcc(code []byte, relocs []Relocation, in instruction, offsets map[lir.BlockId]int) ([]byte, []Relocation) {
	code = append(code, 0x0F, jccOpcode[in.cond])
	start := len(code) + 4
	rel := int32(offsets[in.dst.block] - start)
	code = appendImm32(code, uint32(rel))
	return code, relocs
}

func appendCmp(code []byte, relocs []Relocation, in instruction) ([]byte, []Relocation) {
	if in.src.kind == opImmediate {
		code = append(code, rex(true, 0, enc(in.dst.reg)), 0x81, modrm(3, 7, enc(in.dst.reg)))
		code = appendImm32(code, uint32(in.src.imm))
		return code, relocs
	}
	code = append(code, rex(true, enc(in.src.reg), enc(in.dst.reg)), 0x39, modrm(3, enc(in.src.reg), enc(in.dst.reg)))
	return code, relocs
}

func appendAluImm(code []byte, relocs []Relocation, in instruction, ext uint8) ([]byte, []Relocation) {
	code = append(code, rex(true, 0, enc(in.dst.reg)), 0x81, modrm(3, ext, enc(in.dst.reg)))
	code = appendImm32(code, uint32(in.src.imm))
	return code, relocs
}

func appendImm32(code []byte, v uint32) []byte {
	return append(code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendImm64(code []byte, v uint64) []byte {
	return append(code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
