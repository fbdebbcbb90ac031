package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/lir"
	"github.com/zc-lang/zc/internal/types"
)

// buildCallsOut builds a procedure with a function parameter (callee), a
// call argument (arg), a block-local value (saved) computed before the
// call and read again after it returns, and a call result.
func buildCallsOut() *lir.Procedure {
	callee := lir.VirtualReg{ID: 0}
	arg := lir.VirtualReg{ID: 1}
	saved := lir.VirtualReg{ID: 2}
	result := lir.VirtualReg{ID: 3}

	return &lir.Procedure{
		Name:   "callsOut",
		Entry:  0,
		Params: []lir.Register{callee},
		Blocks: []lir.Block{
			{ID: 0, Params: []lir.Register{callee, arg}, Instrs: []int{0}, Branch: 0},
			{ID: 1, Params: []lir.Register{result}, Branch: 1},
		},
		Instrs: []lir.Instr{
			lir.Copy{Target: saved, Value: lir.Const{Val: 42}},
		},
		Branches: []lir.Branch{
			lir.Call{Fun: callee, Args: []lir.Operand{arg}, Conts: []lir.BlockId{1}},
			lir.Return{Cont: 2, Values: []lir.Operand{result, saved}},
		},
	}
}

func TestAssignGivesFunctionParametersParameterPlaces(t *testing.T) {
	store := types.NewStore()
	proc := buildCallsOut()
	alloc := Assign(store, arch.X86_64SysV(), proc)

	require.IsType(t, ParameterPlace{}, alloc.Mapping[0], "expected %%v0 (a function parameter) to get a ParameterPlace")
}

func TestAssignGivesCallArgumentsArgumentPlaces(t *testing.T) {
	store := types.NewStore()
	proc := buildCallsOut()
	alloc := Assign(store, arch.X86_64SysV(), proc)

	place, ok := alloc.Mapping[1].(ArgumentPlace)
	require.True(t, ok, "expected %%v1 (a call argument) to get an ArgumentPlace, got %#v", alloc.Mapping[1])
	require.Equal(t, 8, place.Total, "expected the argument block total to be one word (8 bytes)")
}

func TestAssignSpillsRegisterLiveAcrossCall(t *testing.T) {
	store := types.NewStore()
	proc := buildCallsOut()
	alloc := Assign(store, arch.X86_64SysV(), proc)

	// %v2 ("saved") is read again after the call returns, so it must never
	// end up in a physical register the callee is free to clobber.
	place, ok := alloc.Mapping[2]
	require.True(t, ok, "expected %%v2 to be assigned a place")
	_, isPhysical := place.(PhysicalPlace)
	require.False(t, isPhysical, "expected %%v2 (live across the call) to be spilled to a Local slot, got a physical register")
	require.IsType(t, LocalPlace{}, place, "expected %%v2 to land in a LocalPlace")
}

func TestApplyRewritesVirtualRegistersToAssignedPlaces(t *testing.T) {
	store := types.NewStore()
	proc := buildCallsOut()
	alloc := Assign(store, arch.X86_64SysV(), proc)
	rewritten := Apply(alloc, proc)

	entry := rewritten.Blocks[0]
	for _, p := range entry.Params {
		_, isVirtual := p.(lir.VirtualReg)
		require.False(t, isVirtual, "expected no VirtualReg left after Apply, got %#v", p)
	}
	call, ok := rewritten.Branches[entry.Branch].(lir.Call)
	require.True(t, ok, "expected the entry block's branch to remain a Call, got %T", rewritten.Branches[entry.Branch])
	_, isVirtual := call.Args[0].(lir.VirtualReg)
	require.False(t, isVirtual, "expected the call argument to be rewritten off VirtualReg")
	require.Equal(t, alloc.FrameSpace, rewritten.FrameSpace, "expected the rewritten procedure's FrameSpace to match the allocation")
}

func TestSizeOfTreatsSingletonRangeAsZeroSized(t *testing.T) {
	store := types.NewStore()
	unit := store.Intern(types.Shape{Kind: types.ShapeRange, Range: types.Range{Lo: 0, Hi: 0}})
	wide := store.Intern(types.Shape{Kind: types.ShapeRange, Range: types.Range{Lo: 0, Hi: 100}})

	require.Equal(t, 0, sizeOf(store, unit), "expected a single-valued range to be zero-sized")
	require.Equal(t, 8, sizeOf(store, wide), "expected a multi-valued range to occupy one word")
}
