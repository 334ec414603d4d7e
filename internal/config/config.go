// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package config

import (
	"fmt"
	"time"
)

// MinTokenRefreshInterval is the shortest token sweep interval the workers
// will schedule, whatever the configuration says.
const MinTokenRefreshInterval = 15 * time.Minute

// Config holds all application configuration.
//
// Configuration Categories:
//
//  1. Remote API: ESI (data) and SSO (credential renewal)
//  2. Storage: BadgerDB location and at-rest token encryption
//  3. Background work: worker triggers, delays, and backups
//  4. Operations: ops HTTP listener, supervisor tree, logging
type Config struct {
	ESI        ESIConfig        `koanf:"esi"`
	SSO        SSOConfig        `koanf:"sso"`
	Storage    StorageConfig    `koanf:"storage"`
	Workers    WorkersConfig    `koanf:"workers"`
	Backup     BackupConfig     `koanf:"backup"`
	Server     ServerConfig     `koanf:"server"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ESIConfig holds settings for the EVE Swagger Interface client.
type ESIConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	Datasource string        `koanf:"datasource" validate:"required"`
	UserAgent  string        `koanf:"user_agent" validate:"required"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimit is the process-wide outbound request budget (requests/second).
	// The per-entity delays in WorkersConfig remain the primary pacing.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=1"`

	// MaxRetries bounds retries of 420/429 responses.
	MaxRetries int `koanf:"max_retries" validate:"min=0,max=10"`

	// Circuit breaker: trips after BreakerFailures consecutive failures and
	// stays open for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`

	// PublicCacheSize bounds the in-memory cache of public GET responses.
	// Zero disables caching.
	PublicCacheSize int `koanf:"public_cache_size" validate:"min=0"`
}

// SSOConfig holds EVE SSO application credentials used for token renewal.
type SSOConfig struct {
	TokenURL     string        `koanf:"token_url" validate:"required,url"`
	ClientID     string        `koanf:"client_id" validate:"required"`
	ClientSecret string        `koanf:"client_secret" validate:"required"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	Path     string `koanf:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`

	// EncryptionKey, when set, encrypts access and refresh tokens at rest.
	EncryptionKey string `koanf:"encryption_key" validate:"omitempty,min=32"`

	// GCDiscardRatio is passed to Badger's value log GC during maintenance.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// WorkersConfig holds trigger and pacing settings for the background jobs.
type WorkersConfig struct {
	DataRefreshMinutes  int           `koanf:"data_refresh_interval" validate:"min=1,max=1440"`
	TokenRefreshMinutes int           `koanf:"token_refresh_interval" validate:"min=1,max=1440"`
	TokenLookahead      time.Duration `koanf:"token_refresh_lookahead" validate:"gt=0"`

	// Fixed pauses between consecutive entities in a batch.
	RefreshDelay time.Duration `koanf:"refresh_delay" validate:"gte=0"`
	TokenDelay   time.Duration `koanf:"token_delay" validate:"gte=0"`

	MaintenanceTime string `koanf:"maintenance_time" validate:"clocktime"`

	// RunOnStart fires the data and token jobs once immediately on start.
	RunOnStart bool `koanf:"run_on_start"`

	// AllowOverlap lets a trigger fire while the previous run of the same
	// job is still in progress. Off by default: overlapping runs are skipped.
	AllowOverlap bool `koanf:"allow_overlap"`

	// DrainTimeout bounds how long stopping waits for runs in progress
	// before cancelling them.
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gt=0"`
}

// DataRefreshTrigger returns the scheduler expression for the data refresh job.
func (w WorkersConfig) DataRefreshTrigger() string {
	return fmt.Sprintf("every %dm", w.DataRefreshMinutes)
}

// TokenRefreshInterval returns the effective token sweep interval,
// never shorter than MinTokenRefreshInterval.
func (w WorkersConfig) TokenRefreshInterval() time.Duration {
	d := time.Duration(w.TokenRefreshMinutes) * time.Minute
	if d < MinTokenRefreshInterval {
		return MinTokenRefreshInterval
	}
	return d
}

// TokenRefreshTrigger returns the scheduler expression for the token job.
func (w WorkersConfig) TokenRefreshTrigger() string {
	return fmt.Sprintf("every %dm", int(w.TokenRefreshInterval()/time.Minute))
}

// BackupConfig holds settings for the daily backup job.
type BackupConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Dir           string `koanf:"dir" validate:"required_if=Enabled true"`
	Time          string `koanf:"time" validate:"clocktime"`
	RetentionDays int    `koanf:"retention_days" validate:"min=1,max=3650"`

	Offsite OffsiteConfig `koanf:"offsite"`
}

// OffsiteConfig copies each backup to an S3-compatible bucket.
type OffsiteConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Bucket          string `koanf:"bucket" validate:"required_if=Enabled true"`
	Prefix          string `koanf:"prefix"`
	Region          string `koanf:"region" validate:"required_if=Enabled true"`
	Endpoint        string `koanf:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

// ServerConfig holds the ops API listener.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings, passed to logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
