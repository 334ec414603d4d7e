// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package config provides layered configuration for EVE Tracker.

Configuration is loaded with Koanf v2 from three sources, later sources
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/evetracker/config.yaml)
 3. Environment variables, through an explicit mapping table

# Environment Variables

ESI (ESIConfig):
  - ESI_BASE_URL: ESI root (default: https://esi.evetech.net/latest)
  - ESI_DATASOURCE: datasource query parameter (default: tranquility)
  - ESI_USER_AGENT: User-Agent sent on every call
  - ESI_TIMEOUT: HTTP client timeout (default: 30s)
  - ESI_RATE_LIMIT: outbound requests per second (default: 10)

SSO (SSOConfig):
  - EVE_CLIENT_ID, EVE_CLIENT_SECRET: application credentials (required)
  - EVE_TOKEN_URL: token endpoint (default: https://login.eveonline.com/v2/oauth/token)

Storage (StorageConfig):
  - DB_PATH: BadgerDB directory (default: ./data/evetracker)
  - TOKEN_ENCRYPTION_KEY: optional secret for encrypting tokens at rest

Workers (WorkersConfig):
  - DATA_REFRESH_INTERVAL: minutes between data refresh runs (default: 30)
  - TOKEN_REFRESH_INTERVAL: minutes between token sweeps (default: 15, floor 15)
  - TOKEN_REFRESH_LOOKAHEAD: renewal window (default: 30m)
  - DB_MAINTENANCE_TIME: daily maintenance time, UTC (default: 03:00)

Backup (BackupConfig):
  - BACKUP_ENABLED: schedule the daily backup (default: true)
  - BACKUP_DIR: dump directory (default: ./backups)
  - BACKUP_TIME: daily backup time, UTC (default: 02:00)
  - BACKUP_RETENTION_DAYS: days to keep dumps (default: 7)

# Validation

Load validates struct tags through internal/validation and then runs the
cross-field checks in validate.go. The most important one: the token
lookahead must be longer than the token sweep interval, otherwise a
credential can expire between two sweeps without ever being selected.

# Thread Safety

Config is immutable after Load returns.
*/
package config
