// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

// Package logging provides centralized zerolog-based structured logging for EVE Tracker.
//
// Every component logs through the global logger configured here. Workers,
// the sync engine, and the ESI client attach their own fields with
// WithComponent or WithJob, and each scheduled run carries a short
// correlation ID so the log lines of one batch can be grouped.
//
// # Quick Start
//
//	import "github.com/tomtom215/evetracker/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int64("character_id", id).Msg("Character synced")
//	logging.Error().Err(err).Msg("Token refresh failed")
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Batch started")
//
// # Configuration
//
// Environment Variables (mapped through internal/config):
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Adapters
//
// Two third-party libraries expect their own logger interfaces:
//
//   - Suture v4 (via sutureslog) takes a *slog.Logger; use NewSlogLogger.
//   - robfig/cron takes a cron.Logger; use NewCronLogger.
//
// Both forward to the global zerolog logger so that supervisor restarts and
// cron panics land in the same structured stream as everything else.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("job", name).Msg("Job started")  // Correct
//	logging.Info().Str("job", name)                     // WRONG - log not emitted
//
// Never log access or refresh tokens. Log the character ID instead.
package logging
