// Package arch describes a target architecture's register file and
// calling convention as data rather than code, so the allocator and
// emitter (internal/regalloc, internal/codegen) generalize across
// conventions without a rebuild (spec §4.8: "The architecture
// provides: a set of physical registers..., a list of call-clobbered
// register ids, a list of parameter-passing register ids, a list of
// return register ids").
//
// Grounded on `hhramberg-go-vslc/src/backend/regfile/regfile.go`'s
// per-architecture register file, generalized from vslc's ARM/RISC-V
// code-level register lists (one Go file per architecture, built by a
// `Create...RegisterFile` constructor) to a YAML-loaded `Descriptor`
// covering x86-64's System V and Microsoft x64 calling conventions, in
// the style of the teacher's `internal/eval_harness/models.go` YAML
// config loader (`gopkg.in/yaml.v3`).
package arch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PhysicalRegister describes one architecture register.
type PhysicalRegister struct {
	ID      uint8    `yaml:"id"`
	Bytes   int      `yaml:"bytes"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Descriptor is a target architecture's register file and calling
// convention, loaded from a YAML manifest rather than hardcoded so a
// new convention (SysV vs. Win64) ships as data.
type Descriptor struct {
	Name string `yaml:"name"`

	Registers []PhysicalRegister `yaml:"registers"`

	// CallClobbered lists register ids a callee may freely overwrite; the
	// allocator forces anything live across a call out of these (spec
	// §4.7, §4.8).
	CallClobbered []uint8 `yaml:"call_clobbered"`

	// ParamRegisters lists register ids used for argument passing, in
	// order (spec §4.8).
	ParamRegisters []uint8 `yaml:"param_registers"`

	// ReturnRegisters lists register ids used for return values, in
	// order (spec §4.8).
	ReturnRegisters []uint8 `yaml:"return_registers"`

	// StackPointer and FramePointer name the two registers the emitter
	// reserves for the calling convention (spec §4.9 prologue/epilogue).
	StackPointer uint8 `yaml:"stack_pointer"`
	FramePointer uint8 `yaml:"frame_pointer"`
}

// Load reads a Descriptor from a YAML manifest at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read architecture descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse architecture descriptor %s: %w", path, err)
	}
	return &d, nil
}

// IsClobbered reports whether a call may overwrite register id without
// the caller saving it first.
func (d *Descriptor) IsClobbered(id uint8) bool {
	for _, c := range d.CallClobbered {
		if c == id {
			return true
		}
	}
	return false
}

// Register looks up a physical register by id.
func (d *Descriptor) Register(id uint8) (PhysicalRegister, bool) {
	for _, r := range d.Registers {
		if r.ID == id {
			return r, true
		}
	}
	return PhysicalRegister{}, false
}

// X86_64SysV is the System V AMD64 ABI used on Linux and macOS: six
// integer argument registers, two integer return registers, and the
// caller-saved set a callee is free to clobber (spec §6 "x86-64 target
// only").
func X86_64SysV() *Descriptor {
	return &Descriptor{
		Name: "x86_64-sysv",
		Registers: []PhysicalRegister{
			{ID: 0, Bytes: 8, Name: "rax"},
			{ID: 1, Bytes: 8, Name: "rbx"},
			{ID: 2, Bytes: 8, Name: "rcx"},
			{ID: 3, Bytes: 8, Name: "rdx"},
			{ID: 4, Bytes: 8, Name: "rsi"},
			{ID: 5, Bytes: 8, Name: "rdi"},
			{ID: 6, Bytes: 8, Name: "rbp"},
			{ID: 7, Bytes: 8, Name: "rsp"},
			{ID: 8, Bytes: 8, Name: "r8"},
			{ID: 9, Bytes: 8, Name: "r9"},
			{ID: 10, Bytes: 8, Name: "r10"},
			{ID: 11, Bytes: 8, Name: "r11"},
			{ID: 12, Bytes: 8, Name: "r12"},
			{ID: 13, Bytes: 8, Name: "r13"},
			{ID: 14, Bytes: 8, Name: "r14"},
			{ID: 15, Bytes: 8, Name: "r15"},
		},
		CallClobbered:   []uint8{0, 2, 3, 4, 5, 8, 9, 10, 11},
		ParamRegisters:  []uint8{5, 4, 3, 2, 8, 9},
		ReturnRegisters: []uint8{0, 3},
		StackPointer:    7,
		FramePointer:    6,
	}
}
