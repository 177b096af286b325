package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables recognized by ApplyEnv.
const (
	// EnvTargetConfig points at an explicit manifest path.
	EnvTargetConfig = "QELINK_TARGET_CONFIG"
	// EnvTargetName overrides [target].name.
	EnvTargetName = "QELINK_TARGET_NAME"
	// EnvVerbosity overrides diagnostic verbosity (ERROR|WARN|INFO|DEBUG).
	EnvVerbosity = "QELINK_VERBOSITY"
	// EnvMaxJobs overrides [link].jobs.
	EnvMaxJobs = "QELINK_MAX_JOBS"
)

// ApplyEnv layers environment variable overrides onto the config,
// including a full manifest reload from QELINK_TARGET_CONFIG. Unset
// variables leave the config untouched.
func (c *Config) ApplyEnv() error {
	if path := os.Getenv(EnvTargetConfig); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return err
		}
		verbosity := c.Verbosity
		*c = loaded
		c.Verbosity = verbosity
	}
	return c.ApplyEnvSettings()
}

// ApplyEnvSettings applies the scalar overrides only, leaving the
// manifest source alone. Used when the manifest path was given
// explicitly and must not be displaced by QELINK_TARGET_CONFIG.
func (c *Config) ApplyEnvSettings() error {
	if name := os.Getenv(EnvTargetName); name != "" {
		c.Target.Name = name
	}

	if v := os.Getenv(EnvVerbosity); v != "" {
		verbosity, err := ParseVerbosity(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerbosity, err)
		}
		c.Verbosity = verbosity
	}

	if jobs := os.Getenv(EnvMaxJobs); jobs != "" {
		n, err := strconv.Atoi(jobs)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: cannot parse maximum jobs from %q", EnvMaxJobs, jobs)
		}
		c.Link.Jobs = n
	}

	return nil
}
