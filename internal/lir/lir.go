// Package lir implements the low-level IR (component C6's output): a
// register-based, control-flow-graph form closer to the target machine
// than MIR (spec §3 "LIR (low-level IR)").
//
// Grounded on `hhramberg-go-vslc/src/ir/lir`'s block/value/branch arena
// shape (a Function/Module owning an arena of instructions referenced by
// index, basic blocks as slices into it), generalized from vslc's single
// scalar-register machine to the spec's three register kinds (Virtual,
// Physical, Frame) and from vslc's pointer-linked blocks to an explicit
// `BlockId`-indexed arena so cross-block references survive serialization
// and the pretty-printer (spec §6 "MIR and LIR textual dumps").
package lir

import (
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/types"
)

// BlockId identifies a Block within a Procedure's Blocks slice.
type BlockId uint32

// Register is one of Virtual, Physical, or Frame (spec §3 "Registers
// exist in three kinds").
type Register interface {
	fmt.Stringer
	register()
	operand()
}

// VirtualReg is a register the allocator has not yet assigned; it is
// typed so the allocator knows its size.
type VirtualReg struct {
	ID   uint32
	Type types.TypeId
}

func (VirtualReg) register()        {}
func (VirtualReg) operand()         {}
func (r VirtualReg) String() string { return fmt.Sprintf("%%v%d", r.ID) }

// PhysicalReg names a concrete architecture register by the id the
// architecture descriptor assigns it (internal/arch.Descriptor).
type PhysicalReg struct {
	ID uint8
}

func (PhysicalReg) register()        {}
func (PhysicalReg) operand()         {}
func (r PhysicalReg) String() string { return fmt.Sprintf("%%r%d", r.ID) }

// FrameKind distinguishes the three roles a FrameReg can play in a
// procedure's stack frame (spec §4.8).
type FrameKind uint8

const (
	FrameArgument FrameKind = iota
	FrameParameter
	FrameLocal
)

func (k FrameKind) String() string {
	switch k {
	case FrameArgument:
		return "arg"
	case FrameParameter:
		return "param"
	case FrameLocal:
		return "local"
	default:
		return "?"
	}
}

// FrameReg is a register the allocator placed in the stack frame rather
// than in a physical register (spec §4.8). Offset/Total are in bytes;
// Total is the footprint of the whole Argument or Parameter group this
// slot belongs to (meaningless, left zero, for Local).
type FrameReg struct {
	Kind   FrameKind
	Offset int
	Total  int
	Type   types.TypeId
}

func (FrameReg) register() {}
func (FrameReg) operand()  {}
func (r FrameReg) String() string {
	if r.Kind == FrameLocal {
		return fmt.Sprintf("%%local[%d]", r.Offset)
	}
	return fmt.Sprintf("%%%s[%d/%d]", r.Kind, r.Offset, r.Total)
}

// Operand is anything an instruction or branch can read: a Register or
// an immediate Const.
type Operand interface {
	fmt.Stringer
	operand()
}

// Const is an immediate integer operand.
type Const struct{ Val int64 }

func (Const) operand()         {}
func (c Const) String() string { return fmt.Sprintf("%d", c.Val) }

// Base carries the span every instruction and branch has, for
// diagnostics raised by instruction selection (spec §4.9).
type Base struct {
	NodeSpan ast.Span
}

func (b Base) Span() ast.Span { return b.NodeSpan }

// Instr is one instruction in a Procedure's instruction arena.
type Instr interface {
	Span() ast.Span
	instr()
}

// Copy moves Value into Target.
type Copy struct {
	Base
	Target Register
	Value  Operand
}

func (Copy) instr() {}

// Index computes Target = *(Value + Offset), a scalar load out of an
// aggregate (spec §4.6: values that escape flattening as a true
// aggregate are read back with Index rather than a scalar Copy).
type Index struct {
	Base
	Target Register
	Value  Operand
	Offset int
}

func (Index) instr() {}

// Tuple constructs an aggregate out of Values into Target, for product
// values that were not scalar-exploded by Flatten because they escape
// the defining block (spec §4.6, §4.9 "Tuple").
type Tuple struct {
	Base
	Target Register
	Values []Operand
}

func (Tuple) instr() {}

// Crash is an unreachable marker; the emitter lowers it to UD2 (spec
// §4.9). It doubles as both an instruction and a block terminator so
// lowering can drop it in either position when a MIR branch fails to
// resolve (a dangling Jump label) without inventing a second marker type.
type Crash struct {
	Base
}

func (Crash) instr()  {}
func (Crash) branch() {}

// CondCode is the relational operator a JumpIf branch tests.
type CondCode uint8

const (
	CondEq CondCode = iota
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
)

func (c CondCode) String() string {
	switch c {
	case CondEq:
		return "=="
	case CondNe:
		return "!="
	case CondLt:
		return "<"
	case CondLe:
		return "<="
	case CondGt:
		return ">"
	case CondGe:
		return ">="
	default:
		return "?"
	}
}

// Branch is a Block's terminal instruction.
type Branch interface {
	Span() ast.Span
	branch()
}

// Call invokes Fun with Args, pushing Conts (continuations, rightmost
// first at emission time) as the callee's return-address contract
// (spec §3 "continuation ids forming the return-stack contract").
type Call struct {
	Base
	Fun   Operand
	Args  []Operand
	Conts []BlockId
}

func (Call) branch() {}

// Jump is an unconditional transfer to To, passing Args as that block's
// parameters.
type Jump struct {
	Base
	To   BlockId
	Args []Operand
}

func (Jump) branch() {}

// JumpIf transfers to Then if Left Cond Right holds, else to Else.
type JumpIf struct {
	Base
	Left, Right Operand
	Cond        CondCode
	Args        []Operand
	Then, Else  BlockId
}

func (JumpIf) branch() {}

// Return exits through continuation Cont with Values (spec §3: a
// function may have several continuations, one per distinct call-site
// arity contract).
type Return struct {
	Base
	Cont   BlockId
	Values []Operand
}

func (Return) branch() {}

// Block is one basic block: its formal parameters, the instructions
// (indices into the owning Procedure's Instrs arena) that make up its
// body, and the branch (an index into Branches) that ends it.
type Block struct {
	ID     BlockId
	Params []Register
	Instrs []int
	Branch int
}

// Procedure is one compiled function: an arena of blocks plus the
// arenas of instructions and branches its blocks index into (spec §3
// "LIR (low-level IR)").
type Procedure struct {
	Name   string
	Blocks []Block
	Entry  BlockId
	Exits  []BlockId
	Conts  []BlockId
	Params []Register

	Instrs   []Instr
	Branches []Branch

	// FrameSpace is the procedure's total stack frame footprint in
	// bytes, set by the allocator (spec §4.8).
	FrameSpace int
}

// Block looks up a block by id.
func (p *Procedure) Block(id BlockId) *Block {
	for i := range p.Blocks {
		if p.Blocks[i].ID == id {
			return &p.Blocks[i]
		}
	}
	return nil
}

// Module is the complete LIR output of lowering: every compiled
// procedure.
type Module struct {
	Procedures []*Procedure
}
