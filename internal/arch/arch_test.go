package arch

import (
	"os"
	"testing"
)

func TestX86_64SysVClobbersCallerSavedRegisters(t *testing.T) {
	d := X86_64SysV()
	if !d.IsClobbered(0) {
		t.Fatalf("expected rax (id 0) to be call-clobbered under SysV")
	}
	if d.IsClobbered(6) {
		t.Fatalf("did not expect rbp (the frame pointer) to be call-clobbered")
	}
}

func TestLoadParsesYAMLDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/arch.yaml"
	doc := "name: toy\nregisters:\n  - id: 0\n    bytes: 8\n    name: a0\ncall_clobbered: [0]\nparam_registers: [0]\nreturn_registers: [0]\nstack_pointer: 0\nframe_pointer: 0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Name != "toy" || len(d.Registers) != 1 || d.Registers[0].Name != "a0" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
}
