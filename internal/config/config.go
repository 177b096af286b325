// Package config loads toolchain configuration from qelink.toml,
// environment variables and CLI flags, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the upward search looks for.
const ManifestName = "qelink.toml"

// Verbosity filters which diagnostics are shown.
type Verbosity uint8

const (
	// VerbosityError shows only errors.
	VerbosityError Verbosity = iota
	// VerbosityWarn shows warnings and errors.
	VerbosityWarn
	// VerbosityInfo shows everything but debug output.
	VerbosityInfo
	// VerbosityDebug shows everything.
	VerbosityDebug
)

// ParseVerbosity maps a config token to a Verbosity.
func ParseVerbosity(token string) (Verbosity, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "ERROR":
		return VerbosityError, nil
	case "WARN":
		return VerbosityWarn, nil
	case "INFO":
		return VerbosityInfo, nil
	case "DEBUG":
		return VerbosityDebug, nil
	}
	return 0, fmt.Errorf("invalid verbosity %q (expected ERROR|WARN|INFO|DEBUG)", token)
}

// Config is the merged toolchain configuration.
type Config struct {
	Target    TargetConfig  `toml:"target"`
	Backend   BackendConfig `toml:"backend"`
	Link      LinkConfig    `toml:"link"`
	Verbosity Verbosity     `toml:"-"`

	// Path of the manifest the config came from, empty when defaults
	// only.
	Path string `toml:"-"`
}

// TargetConfig names the control system and its resource budget.
type TargetConfig struct {
	Name string `toml:"name"`
	// InstructionMemory is the capacity budget in units; 0 leaves the
	// budget to the backend-reported image.
	InstructionMemory uint32 `toml:"instruction-memory"`
}

// BackendConfig locates the external compiler.
type BackendConfig struct {
	Command           string   `toml:"command"`
	Args              []string `toml:"args"`
	MaxSequenceLength int      `toml:"max-sequence-length"`
}

// LinkConfig holds linker defaults overridable per invocation.
type LinkConfig struct {
	WarningsAsErrors  bool `toml:"warnings-as-errors"`
	LenientSignatures bool `toml:"lenient-signatures"`
	Jobs              int  `toml:"jobs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Verbosity: VerbosityWarn}
}

// Load reads and validates a manifest file.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("target") && strings.TrimSpace(cfg.Target.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [target].name", path)
	}
	if cfg.Backend.MaxSequenceLength < 0 {
		return Config{}, fmt.Errorf("%s: [backend].max-sequence-length must not be negative", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Find walks from startDir upward looking for the manifest.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindAndLoad loads the nearest manifest, or the defaults when none
// exists. Env overrides are applied either way.
func FindAndLoad(startDir string) (Config, error) {
	path, found, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if found {
		cfg, err = Load(path)
		if err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
