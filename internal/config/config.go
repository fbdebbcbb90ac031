// Package config loads the driver-level settings a cmd/zc invocation runs
// with: which architecture descriptor to target, how far the pipeline
// pushes past errors, and which debug dumps to produce. Grounded on the
// teacher's internal/manifest.Load/Validate shape (internal/manifest/manifest.go),
// generalized from AILANG's example-manifest JSON to a YAML document
// (gopkg.in/yaml.v3, SPEC_FULL.md's "Configuration" section) the way
// internal/arch already loads its Descriptor.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zc-lang/zc/internal/arch"
)

// Config is the settings a cmd/zc run applies on top of pipeline.Config's
// zero value.
type Config struct {
	// Target names a built-in architecture descriptor ("x86_64-sysv" is
	// the only one the core ships, spec §1) or, if ArchFile is set, is
	// ignored in favor of loading a descriptor from disk.
	Target string `yaml:"target"`
	// ArchFile, if non-empty, overrides Target with a YAML descriptor
	// loaded from this path (internal/arch.Load), letting a downstream
	// driver ship an alternate ABI without a recompile.
	ArchFile string `yaml:"arch_file,omitempty"`

	// MaxErrors stops the pipeline once this many errors accumulate; 0
	// means no limit.
	MaxErrors int `yaml:"max_errors"`
	// SkipPartialEval disables C5 for debug dumps that want pre-peval MIR.
	SkipPartialEval bool `yaml:"skip_partial_eval"`

	// DebugMIR and DebugLIR turn on the pass-level tracing SPEC_FULL.md's
	// ambient logging section describes (cmd/zc prints mir.Printer's and
	// lir.Printer's Explain-mode dumps to stderr when set), one
	// independent switch per dump rather than a single verbose flag.
	DebugMIR bool `yaml:"debug_mir"`
	DebugLIR bool `yaml:"debug_lir"`

	// JSON selects machine-readable diagnostic output for `check` (the
	// `--json` flag); the LSP server does not read it.
	JSON bool `yaml:"json"`
}

// Default returns the settings `cmd/zc check` runs with when no config
// file is given: the sole shipped target, no error cap, every pass on.
func Default() *Config {
	return &Config{
		Target:    "x86_64-sysv",
		MaxErrors: 0,
	}
}

// Load reads and validates a Config from a YAML file at path, defaulting
// any field the file left zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Validate reports a plain error for a cmd/zc flag-parsing failure (the
// CLI layer turns this into a process exit); pipeline-stage validation
// failures are reported as diag.Reports instead, since those happen once
// a compilation run is already underway.
func (c *Config) Validate() error {
	if c.Target == "" && c.ArchFile == "" {
		return fmt.Errorf("either target or arch_file must be set")
	}
	if c.Target != "" && c.Target != "x86_64-sysv" {
		return fmt.Errorf("unknown target %q: only x86_64-sysv is shipped (spec places additional backends out of scope)", c.Target)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors must be >= 0, got %d", c.MaxErrors)
	}
	return nil
}

// Descriptor resolves the architecture descriptor this Config names:
// ArchFile if set (internal/arch.Load), otherwise the sole built-in
// x86_64-sysv descriptor.
func (c *Config) Descriptor() (*arch.Descriptor, error) {
	if c.ArchFile != "" {
		return arch.Load(c.ArchFile)
	}
	return arch.X86_64SysV(), nil
}
