// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	filePrefix      = "evetracker-"
	fileSuffix      = ".bak.gz"
	checksumSuffix  = ".sha256"
	timestampLayout = "20060102T150405.000Z"
)

// ErrInvalidBackup is returned for files that are not backups of this store
// or whose checksum does not match.
var ErrInvalidBackup = errors.New("invalid backup")

// Database is the store surface the backup manager needs.
type Database interface {
	Backup(ctx context.Context, w io.Writer) (uint64, error)
	Load(ctx context.Context, r io.Reader) error
}

// Config holds backup settings.
type Config struct {
	Dir           string
	RetentionDays int

	// Offsite, when set, receives a copy of every backup and has the same
	// retention applied. OffsitePrefix is prepended to object keys.
	Offsite       ObjectStore
	OffsitePrefix string
}

// Result describes a created backup.
type Result struct {
	Path      string        `json:"path"`
	Checksum  string        `json:"checksum"` // Hex SHA-256 of the compressed file
	Size      int64         `json:"size"`
	Version   uint64        `json:"version"` // Badger version the dump is consistent at
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// File is a backup found in the backup directory.
type File struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"` // From the file name
}

// Manager creates and prunes backups. Operations are serialized.
type Manager struct {
	cfg Config
	db  Database
	mu  sync.Mutex
	now func() time.Time
}

// NewManager creates a Manager. The backup directory is created on first
// use rather than here.
func NewManager(cfg Config, db Database) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("backup retention must be at least 1 day, got %d", cfg.RetentionDays)
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &Manager{cfg: cfg, db: db, now: time.Now}, nil
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

func (m *Manager) ensureDir() error {
	if err := os.MkdirAll(m.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("create backup directory %s: %w", m.cfg.Dir, err)
	}
	return nil
}
