package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestValidateRejectsUnknownTarget(t *testing.T) {
	c := Default()
	c.Target = "arm64"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for an unsupported target")
	}
}

func TestValidateRejectsNegativeMaxErrors(t *testing.T) {
	c := Default()
	c.MaxErrors = -1
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for a negative max_errors")
	}
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zc.yaml")
	if err := os.WriteFile(path, []byte("max_errors: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Target != "x86_64-sysv" {
		t.Fatalf("Target = %q, want the default", c.Target)
	}
	if c.MaxErrors != 5 {
		t.Fatalf("MaxErrors = %d, want 5", c.MaxErrors)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zc.yaml")
	if err := os.WriteFile(path, []byte("target: mips\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load() to reject an unsupported target")
	}
}

func TestDescriptorDefaultsToX86_64SysV(t *testing.T) {
	d, err := Default().Descriptor()
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if d.Name != "x86_64-sysv" {
		t.Fatalf("Descriptor().Name = %q, want x86_64-sysv", d.Name)
	}
}
