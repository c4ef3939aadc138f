// Package config loads the optional corelox.toml tuning file. Absence of
// the file is not an error: every field has a compiled-in default matching
// the core specification exactly.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
)

// GC tunes the collector's allocation-triggered policy.
type GC struct {
	InitialThreshold int64   `toml:"initial_threshold"`
	GrowthFactor     float64 `toml:"growth_factor"`
	Stress           bool    `toml:"stress"`
}

// VMLimits caps call depth and operand-stack usage below the VM's
// compiled-in FramesMax/StackMax arrays; a value that would exceed the
// array size is clamped down to it rather than rejected.
type VMLimits struct {
	MaxFrames int `toml:"max_frames"`
	MaxStack  int `toml:"max_stack"`
}

// Natives lets an embedder withhold specific native functions from the
// globals table, e.g. when sandboxing an untrusted script.
type Natives struct {
	Disabled []string `toml:"disabled"`
}

// Config is the parsed contents of corelox.toml.
type Config struct {
	GC      GC       `toml:"gc"`
	VM      VMLimits `toml:"vm"`
	Natives Natives  `toml:"natives"`
}

// Default returns the configuration matching the specification's
// compiled-in constants: a 1 MiB initial GC threshold, ×2 growth, 64 call
// frames, and a 64×256-slot operand stack.
func Default() Config {
	return Config{
		GC: GC{
			InitialThreshold: 1 << 20,
			GrowthFactor:     2,
		},
		VM: VMLimits{
			MaxFrames: 64,
			MaxStack:  64 * 256,
		},
	}
}

// Load reads and parses path, merging over Default(). A missing file is
// not an error: Load then returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, pkgerrors.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, nil
}
