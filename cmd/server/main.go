// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

// Package main is the entry point for the EVE Tracker sync service.
//
// EVE Tracker keeps a local copy of EVE Online character data (wallet,
// assets, skills, standings, affiliation) fresh by polling ESI in the
// background, and keeps the characters' OAuth credentials renewed.
//
// # Commands
//
//	evetracker serve                  run the workers under the supervisor tree
//	evetracker run <job>              run one job once and exit
//	evetracker backup create          take a backup now
//	evetracker backup list            list backups, newest first
//	evetracker backup verify <file>   check a backup's checksum
//	evetracker backup restore <file>  restore a backup into the store
//
// Running with no command is the same as serve.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 (highest priority wins):
//   - Environment variables (EVE_CLIENT_ID, EVE_CLIENT_SECRET, DB_PATH, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// serve shuts down on SIGINT and SIGTERM: scheduled triggers are cancelled,
// runs in progress are drained (WORKERS_DRAIN_TIMEOUT), the ops listener is
// shut down, and the store is closed last.
package main

import (
	"context"
	"os"

	"github.com/tomtom215/evetracker/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
