// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/evetracker/config.yaml",
	"/etc/evetracker/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		ESI: ESIConfig{
			BaseURL:         "https://esi.evetech.net/latest",
			Datasource:      "tranquility",
			UserAgent:       "evetracker/1.0 (+https://github.com/tomtom215/evetracker)",
			Timeout:         30 * time.Second,
			RateLimit:       10,
			RateBurst:       20,
			MaxRetries:      5,
			BreakerFailures: 5,
			BreakerTimeout:  60 * time.Second,
			PublicCacheSize: 1000,
		},
		SSO: SSOConfig{
			TokenURL: "https://login.eveonline.com/v2/oauth/token",
			Timeout:  30 * time.Second,
		},
		Storage: StorageConfig{
			Path:           "./data/evetracker",
			GCDiscardRatio: 0.5,
		},
		Workers: WorkersConfig{
			DataRefreshMinutes:  30,
			TokenRefreshMinutes: 15,
			TokenLookahead:      30 * time.Minute,
			RefreshDelay:        2 * time.Second,
			TokenDelay:          1 * time.Second,
			MaintenanceTime:     "03:00",
			RunOnStart:          true,
			AllowOverlap:        false,
			DrainTimeout:        60 * time.Second,
		},
		Backup: BackupConfig{
			Enabled:       true,
			Dir:           "./backups",
			Time:          "02:00",
			RetentionDays: 7,
			Offsite: OffsiteConfig{
				Prefix: "evetracker",
				Region: "auto",
			},
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            9464,
			ShutdownTimeout: 10 * time.Second,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  90 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, and the
// environment (in increasing priority), then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"esi_base_url":          "esi.base_url",
	"esi_datasource":        "esi.datasource",
	"esi_user_agent":        "esi.user_agent",
	"esi_timeout":           "esi.timeout",
	"esi_rate_limit":        "esi.rate_limit",
	"esi_rate_burst":        "esi.rate_burst",
	"esi_max_retries":       "esi.max_retries",
	"esi_breaker_failures":  "esi.breaker_failures",
	"esi_breaker_timeout":   "esi.breaker_timeout",
	"esi_public_cache_size": "esi.public_cache_size",

	"eve_client_id":     "sso.client_id",
	"eve_client_secret": "sso.client_secret",
	"eve_token_url":     "sso.token_url",
	"sso_timeout":       "sso.timeout",

	"db_path":              "storage.path",
	"db_in_memory":         "storage.in_memory",
	"token_encryption_key": "storage.encryption_key",
	"db_gc_discard_ratio":  "storage.gc_discard_ratio",

	"data_refresh_interval":   "workers.data_refresh_interval",
	"token_refresh_interval":  "workers.token_refresh_interval",
	"token_refresh_lookahead": "workers.token_refresh_lookahead",
	"refresh_delay":           "workers.refresh_delay",
	"token_refresh_delay":     "workers.token_delay",
	"db_maintenance_time":     "workers.maintenance_time",
	"workers_run_on_start":    "workers.run_on_start",
	"workers_allow_overlap":   "workers.allow_overlap",
	"workers_drain_timeout":   "workers.drain_timeout",

	"backup_enabled":        "backup.enabled",
	"backup_dir":            "backup.dir",
	"backup_time":           "backup.time",
	"backup_retention_days": "backup.retention_days",

	"backup_s3_enabled":           "backup.offsite.enabled",
	"backup_s3_bucket":            "backup.offsite.bucket",
	"backup_s3_prefix":            "backup.offsite.prefix",
	"backup_s3_region":            "backup.offsite.region",
	"backup_s3_endpoint":          "backup.offsite.endpoint",
	"backup_s3_access_key_id":     "backup.offsite.access_key_id",
	"backup_s3_secret_access_key": "backup.offsite.secret_access_key",
	"backup_s3_use_path_style":    "backup.offsite.use_path_style",

	"ops_enabled": "server.enabled",
	"ops_host":    "server.host",
	"ops_port":    "server.port",

	"supervisor_shutdown_timeout": "supervisor.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path,
// or "" to skip it.
//
//   - EVE_CLIENT_ID -> sso.client_id
//   - DB_MAINTENANCE_TIME -> workers.maintenance_time
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
