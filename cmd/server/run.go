// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/evetracker/internal/workers"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job>",
		Short: "Run one background job once and exit",
		Long: fmt.Sprintf(`Run one background job once, outside its schedule, and exit.

Jobs: %s, %s, %s, %s

A batch job in which some characters failed exits non-zero after
processing every character.`, workers.JobDataRefresh, workers.JobTokenRefresh, workers.JobDBMaintenance, workers.JobBackup),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = a.workers.RunOnce(ctx, args[0])
			if errors.Is(err, workers.ErrUnknownJob) {
				return fmt.Errorf("%w (jobs: %v)", err, a.workers.Status().Jobs)
			}
			if err != nil {
				return err
			}
			for _, rs := range a.workers.Status().Runs {
				if rs.Job == args[0] && rs.LastCharacterFailures > 0 {
					return fmt.Errorf("%s: %d of %d characters failed", rs.Job, rs.LastCharacterFailures, rs.LastCharacters)
				}
			}
			return nil
		},
	}
}
