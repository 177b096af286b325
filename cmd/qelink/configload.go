package main

import (
	"github.com/spf13/cobra"

	"qelink/internal/config"
)

// loadConfig resolves the toolchain config for a command: the --config
// flag wins over the upward manifest search, and environment overrides
// apply in both cases.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		if err := cfg.ApplyEnvSettings(); err != nil {
			return config.Config{}, err
		}
		return cfg, nil
	}
	return config.FindAndLoad(".")
}

func quietFlag(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return false
	}
	return quiet
}
