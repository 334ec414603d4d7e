// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var errBackupsDisabled = errors.New("backups are disabled (BACKUP_ENABLED=false)")

func newBackupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, verify and restore store backups",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Take a backup now and copy it offsite when configured",
			Args:  cobra.NoArgs,
			RunE: withBackups(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				res, err := a.backups.CreateBackup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\tsha256:%s\n", res.Path, res.Size, res.Checksum)
				if a.backups.OffsiteEnabled() {
					if err := a.backups.Offload(ctx, res); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "copied offsite")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List backups, newest first",
			Args:  cobra.NoArgs,
			RunE: withBackups(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				files, err := a.backups.List()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCREATED\tSIZE")
				for _, f := range files {
					fmt.Fprintf(w, "%s\t%s\t%d\n", f.Name, f.CreatedAt.Format(time.RFC3339), f.Size)
				}
				return w.Flush()
			}),
		},
		&cobra.Command{
			Use:   "verify <file>",
			Short: "Check a backup against its checksum",
			Args:  cobra.ExactArgs(1),
			RunE: withBackups(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				if err := a.backups.Verify(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "restore <file>",
			Short: "Restore a backup into the store (takes a safety backup first)",
			Args:  cobra.ExactArgs(1),
			RunE: withBackups(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				if err := a.backups.Restore(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}

// withBackups loads the app for a backup subcommand and closes it after.
func withBackups(opts *options, fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()
		if a.backups == nil {
			return errBackupsDisabled
		}

		return fn(cmd.Context(), cmd, a, args)
	}
}
