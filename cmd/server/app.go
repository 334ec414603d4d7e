// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/evetracker/internal/backup"
	"github.com/tomtom215/evetracker/internal/config"
	"github.com/tomtom215/evetracker/internal/esi"
	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/sso"
	"github.com/tomtom215/evetracker/internal/store"
	entitysync "github.com/tomtom215/evetracker/internal/sync"
	"github.com/tomtom215/evetracker/internal/workers"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	store   *store.Store
	renewer *sso.Renewer
	esi     *esi.Client
	engine  *entitysync.Engine
	backups *backup.Manager // nil when backups are disabled
	workers *workers.Manager
}

// newApp opens the store and builds the components on top of it. The
// caller must call close.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := store.Open(store.Config{
		Path:          cfg.Storage.Path,
		InMemory:      cfg.Storage.InMemory,
		EncryptionKey: cfg.Storage.EncryptionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logging.Info().
		Str("path", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Bool("token_encryption", cfg.Storage.EncryptionKey != "").
		Msg("Store opened")

	a := &app{cfg: cfg, store: st}

	a.renewer = sso.NewRenewer(sso.NewClient(cfg.SSO), st)
	a.esi = esi.NewClient(cfg.ESI, st, a.renewer)
	a.engine = entitysync.NewEngine(a.esi, st)

	if cfg.Backup.Enabled {
		if a.backups, err = newBackupManager(ctx, cfg.Backup, st); err != nil {
			a.close()
			return nil, err
		}
	}

	deps := workers.Dependencies{
		Store:   st,
		Syncer:  a.engine,
		Renewer: a.renewer,
	}
	if a.backups != nil {
		deps.Backups = a.backups
	}
	a.workers = workers.NewManager(workers.Config{
		Workers:        cfg.Workers,
		Backup:         cfg.Backup,
		GCDiscardRatio: cfg.Storage.GCDiscardRatio,
	}, deps)

	return a, nil
}

func newBackupManager(ctx context.Context, cfg config.BackupConfig, st *store.Store) (*backup.Manager, error) {
	bc := backup.Config{
		Dir:           cfg.Dir,
		RetentionDays: cfg.RetentionDays,
	}
	if cfg.Offsite.Enabled {
		remote, err := backup.NewS3Store(ctx, cfg.Offsite)
		if err != nil {
			return nil, fmt.Errorf("offsite backups: %w", err)
		}
		bc.Offsite = remote
		bc.OffsitePrefix = cfg.Offsite.Prefix
		logging.Info().
			Str("bucket", cfg.Offsite.Bucket).
			Str("prefix", cfg.Offsite.Prefix).
			Msg("Offsite backups enabled")
	}

	m, err := backup.NewManager(bc, st)
	if err != nil {
		return nil, fmt.Errorf("backup manager: %w", err)
	}
	return m, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing store")
		return
	}
	logging.Info().Msg("Store closed")
}
