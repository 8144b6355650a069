package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is picked up from the working directory when no
// -config flag is given.
const DefaultConfigFile = "um32.toml"

// Config holds runner settings loaded from an um32.toml file.
// Explicit command-line flags override it.
type Config struct {
	Machine MachineConfig `toml:"machine"`
}

// MachineConfig configures execution limits and tracing.
type MachineConfig struct {
	// MaxSteps aborts the run after this many instructions (0 = unlimited).
	MaxSteps uint64 `toml:"max-steps"`

	// Trace logs every instruction before it executes.
	Trace bool `toml:"trace"`
}

// LoadConfig reads a TOML config file. With an empty path it falls
// back to um32.toml in the working directory, and to defaults if that
// does not exist either.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
