package codegen

import (
	"testing"

	"github.com/zc-lang/zc/internal/arch"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/lir"
)

// buildIdentity mirrors the spec's worked example: `let id = (x: 0..10)
// => x` compiles, after register allocation, to a single block that
// copies its parameter register into the return register and returns.
func buildIdentity() *lir.Procedure {
	rdi := lir.PhysicalReg{ID: 5}
	rax := lir.PhysicalReg{ID: 0}
	return &lir.Procedure{
		Name:   "id",
		Entry:  0,
		Params: []lir.Register{rdi},
		Conts:  []lir.BlockId{1},
		Blocks: []lir.Block{
			{ID: 0, Params: []lir.Register{rdi}, Instrs: []int{0}, Branch: 0},
		},
		Instrs: []lir.Instr{
			lir.Copy{Target: rax, Value: rdi},
		},
		Branches: []lir.Branch{
			lir.Return{Cont: 1, Values: []lir.Operand{rax}},
		},
	}
}

func TestEmitIdentityProducesMovRaxRdiThenRet(t *testing.T) {
	sink := diag.NewSink()
	obj := Emit(arch.X86_64SysV(), buildIdentity(), sink)

	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	// REX.W 89 /r (mov r/m64, r64): rex=0x48, opcode=0x89, modrm(3, rdi_enc=7, rax_enc=0)
	want := []byte{0x48, 0x89, 0xF8, 0xC3}
	if len(obj.Code) != len(want) {
		t.Fatalf("Emit() code = % x, want % x", obj.Code, want)
	}
	for i := range want {
		if obj.Code[i] != want[i] {
			t.Fatalf("Emit() code = % x, want % x", obj.Code, want)
		}
	}
	if len(obj.Relocs) != 0 {
		t.Fatalf("expected no relocations for a self-contained procedure, got %v", obj.Relocs)
	}
}

func TestEmitCrashProducesUD2(t *testing.T) {
	proc := &lir.Procedure{
		Name:   "unreachable",
		Entry:  0,
		Blocks: []lir.Block{{ID: 0, Instrs: []int{0}, Branch: 0}},
		Instrs: []lir.Instr{lir.Crash{}},
		Branches: []lir.Branch{
			lir.Crash{},
		},
	}
	sink := diag.NewSink()
	obj := Emit(arch.X86_64SysV(), proc, sink)

	if len(obj.Code) != 4 || obj.Code[0] != 0x0F || obj.Code[1] != 0x0B {
		t.Fatalf("expected a Crash instruction to produce a leading UD2, got % x", obj.Code)
	}
}

func TestEmitNamedCallProducesRelocation(t *testing.T) {
	callee := lir.Label{Name: "helper"}
	proc := &lir.Procedure{
		Name:   "caller",
		Entry:  0,
		Conts:  []lir.BlockId{1},
		Blocks: []lir.Block{
			{ID: 0, Branch: 0},
			{ID: 1, Branch: 1},
		},
		Branches: []lir.Branch{
			lir.Call{Fun: callee, Conts: []lir.BlockId{1}},
			lir.Return{Cont: 1},
		},
	}

	sink := diag.NewSink()
	obj := Emit(arch.X86_64SysV(), proc, sink)

	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	if len(obj.Relocs) != 1 {
		t.Fatalf("expected exactly one relocation for the named call target, got %v", obj.Relocs)
	}
	if obj.Relocs[0].Name != "helper" || obj.Relocs[0].Kind != Relative {
		t.Fatalf("unexpected relocation: %+v", obj.Relocs[0])
	}
}

func TestEmitTupleWithoutFrameSlotReportsGEN001(t *testing.T) {
	// A Tuple instruction should only ever target a FrameReg (regalloc
	// routes every surviving aggregate to a frame slot); a PhysicalReg
	// target means an earlier pass misbehaved, and the selector reports
	// it rather than silently dropping the write.
	proc := &lir.Procedure{
		Name:   "bad",
		Entry:  0,
		Blocks: []lir.Block{{ID: 0, Instrs: []int{0}, Branch: 0}},
		Instrs: []lir.Instr{
			lir.Tuple{Target: lir.PhysicalReg{ID: 0}, Values: []lir.Operand{lir.Const{Val: 1}}},
		},
		Branches: []lir.Branch{lir.Return{}},
	}

	sink := diag.NewSink()
	Emit(arch.X86_64SysV(), proc, sink)

	if sink.ErrorCount() != 1 || sink.Reports()[0].Code != diag.GEN001 {
		t.Fatalf("expected exactly one GEN001 report, got %v", sink.Reports())
	}
}
