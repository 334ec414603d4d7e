// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/evetracker/internal/validation"
)

// setRequiredEnv sets the SSO credentials every Load call needs and points
// CONFIG_PATH at a non-existent file so a stray config.yaml is not picked up.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EVE_CLIENT_ID", "client-id")
	t.Setenv("EVE_CLIENT_SECRET", "client-secret")
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ESI.BaseURL != "https://esi.evetech.net/latest" {
		t.Errorf("ESI.BaseURL = %q", cfg.ESI.BaseURL)
	}
	if cfg.ESI.Datasource != "tranquility" {
		t.Errorf("ESI.Datasource = %q", cfg.ESI.Datasource)
	}
	if cfg.Workers.DataRefreshMinutes != 30 {
		t.Errorf("Workers.DataRefreshMinutes = %d, want 30", cfg.Workers.DataRefreshMinutes)
	}
	if cfg.Workers.TokenLookahead != 30*time.Minute {
		t.Errorf("Workers.TokenLookahead = %v, want 30m", cfg.Workers.TokenLookahead)
	}
	if cfg.Workers.RefreshDelay != 2*time.Second || cfg.Workers.TokenDelay != time.Second {
		t.Errorf("unexpected delays: %v / %v", cfg.Workers.RefreshDelay, cfg.Workers.TokenDelay)
	}
	if cfg.Workers.MaintenanceTime != "03:00" {
		t.Errorf("Workers.MaintenanceTime = %q", cfg.Workers.MaintenanceTime)
	}
	if cfg.Backup.Time != "02:00" || cfg.Backup.RetentionDays != 7 {
		t.Errorf("unexpected backup defaults: %+v", cfg.Backup)
	}
	if cfg.Workers.AllowOverlap {
		t.Error("expected overlap guard on by default")
	}
	if cfg.ESI.PublicCacheSize != 1000 {
		t.Errorf("ESI.PublicCacheSize = %d, want 1000", cfg.ESI.PublicCacheSize)
	}
	if cfg.Backup.Offsite.Enabled {
		t.Error("expected offsite backups off by default")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATA_REFRESH_INTERVAL", "45")
	t.Setenv("BACKUP_TIME", "4:30")
	t.Setenv("BACKUP_RETENTION_DAYS", "14")
	t.Setenv("DB_MAINTENANCE_TIME", "05:15")
	t.Setenv("TOKEN_REFRESH_LOOKAHEAD", "45m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")
	t.Setenv("BACKUP_S3_ENABLED", "true")
	t.Setenv("BACKUP_S3_BUCKET", "evetracker-backups")
	t.Setenv("BACKUP_S3_ENDPOINT", "https://account.r2.cloudflarestorage.com")
	t.Setenv("ESI_PUBLIC_CACHE_SIZE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers.DataRefreshMinutes != 45 {
		t.Errorf("DataRefreshMinutes = %d, want 45", cfg.Workers.DataRefreshMinutes)
	}
	if got := cfg.Workers.DataRefreshTrigger(); got != "every 45m" {
		t.Errorf("DataRefreshTrigger() = %q", got)
	}
	if cfg.Backup.Time != "4:30" || cfg.Backup.RetentionDays != 14 {
		t.Errorf("unexpected backup config: %+v", cfg.Backup)
	}
	if cfg.Workers.MaintenanceTime != "05:15" {
		t.Errorf("MaintenanceTime = %q", cfg.Workers.MaintenanceTime)
	}
	if cfg.Workers.TokenLookahead != 45*time.Minute {
		t.Errorf("TokenLookahead = %v", cfg.Workers.TokenLookahead)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	off := cfg.Backup.Offsite
	if !off.Enabled || off.Bucket != "evetracker-backups" || off.Region != "auto" || off.Prefix != "evetracker" {
		t.Errorf("unexpected offsite config: %+v", off)
	}
	if cfg.ESI.PublicCacheSize != 0 {
		t.Errorf("ESI.PublicCacheSize = %d, want 0", cfg.ESI.PublicCacheSize)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
workers:
  data_refresh_interval: 60
  refresh_delay: 500ms
backup:
  dir: /var/backups/evetracker
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers.DataRefreshMinutes != 60 {
		t.Errorf("DataRefreshMinutes = %d, want 60", cfg.Workers.DataRefreshMinutes)
	}
	if cfg.Workers.RefreshDelay != 500*time.Millisecond {
		t.Errorf("RefreshDelay = %v", cfg.Workers.RefreshDelay)
	}
	if cfg.Backup.Dir != "/var/backups/evetracker" {
		t.Errorf("Backup.Dir = %q", cfg.Backup.Dir)
	}
	// Environment still wins over the file.
	if cfg.SSO.ClientID != "client-id" {
		t.Errorf("SSO.ClientID = %q", cfg.SSO.ClientID)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("EVE_CLIENT_ID", "")
	t.Setenv("EVE_CLIENT_SECRET", "")
	t.Chdir(t.TempDir())

	_, err := Load()
	if err == nil {
		t.Fatal("expected error without SSO credentials")
	}

	var verr *validation.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Errors, got %T: %v", err, err)
	}
	if !verr.Has("sso.client_id") || !verr.Has("sso.client_secret") {
		t.Errorf("expected sso credential failures, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"EVE_CLIENT_ID":          "sso.client_id",
		"DB_MAINTENANCE_TIME":    "workers.maintenance_time",
		"TOKEN_REFRESH_INTERVAL": "workers.token_refresh_interval",
		"BACKUP_RETENTION_DAYS":  "backup.retention_days",
		"PATH":                   "",
		"HOME":                   "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.SSO.ClientID = "id"
	cfg.SSO.ClientSecret = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad maintenance time", func(c *Config) { c.Workers.MaintenanceTime = "3am" }, "workers.maintenance_time"},
		{"bad backup time", func(c *Config) { c.Backup.Time = "25:00" }, "backup.time"},
		{"zero retention", func(c *Config) { c.Backup.RetentionDays = 0 }, "backup.retention_days"},
		{"bad base url", func(c *Config) { c.ESI.BaseURL = "not a url" }, "esi.base_url"},
		{"lookahead shorter than interval", func(c *Config) { c.Workers.TokenLookahead = 10 * time.Minute }, "token_refresh_lookahead"},
		{"lookahead equal to floor", func(c *Config) {
			c.Workers.TokenRefreshMinutes = 5
			c.Workers.TokenLookahead = 15 * time.Minute
		}, "token_refresh_lookahead"},
		{"short encryption key", func(c *Config) { c.Storage.EncryptionKey = "short" }, "storage.encryption_key"},
		{"in-memory without path", func(c *Config) {
			c.Storage.InMemory = true
			c.Storage.Path = ""
		}, ""},
		{"backup enabled without dir", func(c *Config) { c.Backup.Dir = "" }, "backup.dir"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"offsite without bucket", func(c *Config) { c.Backup.Offsite.Enabled = true }, "backup.offsite.bucket"},
		{"offsite with bucket", func(c *Config) {
			c.Backup.Offsite.Enabled = true
			c.Backup.Offsite.Bucket = "evetracker-backups"
		}, ""},
		{"offsite bad endpoint", func(c *Config) { c.Backup.Offsite.Endpoint = "not a url" }, "backup.offsite.endpoint"},
		{"negative public cache", func(c *Config) { c.ESI.PublicCacheSize = -1 }, "esi.public_cache_size"},
		{"shutdown shorter than drain", func(c *Config) { c.Supervisor.ShutdownTimeout = 30 * time.Second }, "supervisor.shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWorkersConfig_TokenRefreshFloor(t *testing.T) {
	t.Parallel()

	w := WorkersConfig{TokenRefreshMinutes: 5}
	if got := w.TokenRefreshInterval(); got != MinTokenRefreshInterval {
		t.Errorf("TokenRefreshInterval() = %v, want %v", got, MinTokenRefreshInterval)
	}
	if got := w.TokenRefreshTrigger(); got != "every 15m" {
		t.Errorf("TokenRefreshTrigger() = %q", got)
	}

	w.TokenRefreshMinutes = 20
	if got := w.TokenRefreshInterval(); got != 20*time.Minute {
		t.Errorf("TokenRefreshInterval() = %v, want 20m", got)
	}
}
