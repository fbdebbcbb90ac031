package liveness

import (
	"testing"

	"github.com/zc-lang/zc/internal/lir"
)

// buildDiamond builds a tiny procedure with a JumpIf diamond:
//
//	block0(%v0): jumpif %v0 == 0 -> block1 else block2
//	block1(): copy %v1 = 1; jump block3(%v1)
//	block2(): copy %v1 = 2; jump block3(%v1)
//	block3(%v2): return[cont=block4] %v2
//
// %v0 is live only across block0; %v1 is defined and consumed within
// each arm and does not cross into block3 as itself (it is passed
// positionally as block3's own parameter %v2).
func buildDiamond() *lir.Procedure {
	v0 := lir.VirtualReg{ID: 0}
	v1a := lir.VirtualReg{ID: 1}
	v1b := lir.VirtualReg{ID: 2}
	v2 := lir.VirtualReg{ID: 3}

	instrs := []lir.Instr{
		lir.Copy{Target: v1a, Value: lir.Const{Val: 1}}, // 0
		lir.Copy{Target: v1b, Value: lir.Const{Val: 2}}, // 1
	}
	branches := []lir.Branch{
		lir.JumpIf{Left: v0, Right: lir.Const{Val: 0}, Cond: lir.CondEq, Then: 1, Else: 2}, // 0
		lir.Jump{To: 3, Args: []lir.Operand{v1a}},                                          // 1
		lir.Jump{To: 3, Args: []lir.Operand{v1b}},                                          // 2
		lir.Return{Cont: 4, Values: []lir.Operand{v2}},                                     // 3
	}
	blocks := []lir.Block{
		{ID: 0, Params: []lir.Register{v0}, Branch: 0},
		{ID: 1, Instrs: []int{0}, Branch: 1},
		{ID: 2, Instrs: []int{1}, Branch: 2},
		{ID: 3, Params: []lir.Register{v2}, Branch: 3},
	}
	return &lir.Procedure{
		Name:     "diamond",
		Blocks:   blocks,
		Entry:    0,
		Params:   []lir.Register{v0},
		Instrs:   instrs,
		Branches: branches,
	}
}

func TestApproximateLivenessPropagatesAcrossDiamond(t *testing.T) {
	p := buildDiamond()
	liveIn, liveOut := Approximate(p)

	v0 := lir.VirtualReg{ID: 0}
	v1a := lir.VirtualReg{ID: 1}
	v2 := lir.VirtualReg{ID: 3}

	if !liveIn[0][v0] {
		t.Fatalf("expected %%v0 live into block0, its own parameter, tested by the branch")
	}
	if liveOut[0][v0] {
		t.Fatalf("did not expect %%v0 live out of block0: nothing past the branch reads it")
	}
	if liveOut[1][v1a] {
		t.Fatalf("did not expect %%v1 live out of block1: it dies at the Jump that consumes it as an argument, rather than surviving past the branch under its own name")
	}
	if !liveIn[3][v2] {
		t.Fatalf("expected %%v2 live into block3: it is that block's own parameter and Return uses it")
	}
	if liveIn[1][v0] {
		t.Fatalf("did not expect %%v0 demanded of block1: the predecessor already supplies its own params via branch args, not liveIn")
	}
}

func TestPreciseLivenessRecordsStoreAndLoadPositions(t *testing.T) {
	p := buildDiamond()
	ranges := Precise(p, nil)

	v1a := lir.VirtualReg{ID: 1}
	r := ranges[v1a]
	if r == nil {
		t.Fatalf("expected a live range for %%v1 (arm one)")
	}
	if !r[Position{Kind: PosInstruction, Block: 1, Index: 0, LS: Store}] {
		t.Fatalf("expected %%v1's range to start at its defining Copy's store position")
	}
	if !r[Position{Kind: PosBranch, Block: 1}] {
		t.Fatalf("expected %%v1's range to extend to block1's branch, which reads it as a Jump argument")
	}
}

func TestPreciseLivenessForcesClobberedRegistersAcrossCall(t *testing.T) {
	callee := lir.VirtualReg{ID: 0}
	arg := lir.VirtualReg{ID: 1}
	result := lir.VirtualReg{ID: 2}
	saved := lir.VirtualReg{ID: 3}

	p := &lir.Procedure{
		Name:  "callsOut",
		Entry: 0,
		Blocks: []lir.Block{
			{ID: 0, Params: []lir.Register{callee, arg, saved}, Branch: 0},
			{ID: 1, Params: []lir.Register{result}, Branch: 1},
		},
		Branches: []lir.Branch{
			lir.Call{Fun: callee, Args: []lir.Operand{arg}, Conts: []lir.BlockId{1}},
			lir.Return{Cont: 2, Values: []lir.Operand{result, saved}},
		},
	}

	clobbered := []lir.Register{lir.PhysicalReg{ID: 0}}
	ranges := Precise(p, clobbered)

	if !ranges[lir.PhysicalReg{ID: 0}][Position{Kind: PosBranch, Block: 0}] {
		t.Fatalf("expected the call-clobbered physical register forced live across the Call branch")
	}
	if !ranges[saved][Position{Kind: PosBranch, Block: 0}] {
		t.Fatalf("expected %%saved (used after the call) live across the Call branch")
	}
}
