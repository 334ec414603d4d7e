// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/evetracker/internal/config"
	"github.com/tomtom215/evetracker/internal/logging"
)

// options are the global flags.
type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "evetracker",
		Short: "EVE Tracker - background character synchronization",
		Long: `EVE Tracker keeps EVE Online character data and OAuth credentials fresh.

Examples:
  evetracker serve                 # Run the background workers
  evetracker run data_refresh      # Sync every character once
  evetracker backup list           # Show backups`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newBackupCmd(opts))

	return root
}

// loadConfig loads configuration and initializes logging from it.
func loadConfig(opts *options) (*config.Config, error) {
	if opts.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, opts.configPath); err != nil {
			return nil, fmt.Errorf("set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}
