// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/evetracker/internal/api"
	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/supervisor"
	"github.com/tomtom215/evetracker/internal/supervisor/services"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background workers until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logging.Info().Msg("Starting EVE Tracker with supervisor tree")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	// Closed only after the tree has returned, so no run is in progress.
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return err
	}

	tree.AddWorkersService(services.NewWorkersService(a.workers))
	logging.Info().Strs("jobs", a.workers.Status().Jobs).Msg("Workers service added")

	if cfg.Server.Enabled {
		var backups api.BackupService
		if a.backups != nil {
			backups = a.backups
		}
		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           api.NewRouter(api.NewHandler(a.workers, a.store, backups, a.esi)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		tree.AddOpsService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Ops HTTP server service added")
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// ServeBackground sends exactly one value and never closes errCh.
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("EVE Tracker stopped")
	return nil
}
