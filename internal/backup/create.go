// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package backup

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
)

// CreateBackup writes a full dump of the store to the backup directory.
func (m *Manager) CreateBackup(ctx context.Context) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := m.createLocked(ctx)
	if err != nil {
		metrics.RecordBackup(0, err)
		return nil, err
	}
	metrics.RecordBackup(result.Size, nil)
	return result, nil
}

func (m *Manager) createLocked(ctx context.Context) (*Result, error) {
	start := time.Now()
	if err := m.ensureDir(); err != nil {
		return nil, err
	}

	createdAt := m.now().UTC().Truncate(time.Millisecond)
	finalPath := m.pathFor(createdAt)
	for fileExists(finalPath) {
		createdAt = createdAt.Add(time.Millisecond)
		finalPath = m.pathFor(createdAt)
	}

	tmp, err := os.CreateTemp(m.cfg.Dir, ".evetracker-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp backup file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	counter := &countingWriter{}
	gz := gzip.NewWriter(io.MultiWriter(tmp, hasher, counter))

	version, err := m.db.Backup(ctx, gz)
	if err != nil {
		return nil, fmt.Errorf("dump store: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finish compression: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o640); err != nil {
		return nil, fmt.Errorf("set backup permissions: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("rename backup into place: %w", err)
	}
	committed = true

	checksum := hex.EncodeToString(hasher.Sum(nil))
	if err := writeChecksum(finalPath, checksum); err != nil {
		logging.Warn().Err(err).Str("path", finalPath).Msg("Failed to write backup checksum")
	}

	result := &Result{
		Path:      finalPath,
		Checksum:  checksum,
		Size:      counter.n,
		Version:   version,
		CreatedAt: createdAt,
		Duration:  time.Since(start),
	}
	logging.Info().
		Str("path", result.Path).
		Int64("size_bytes", result.Size).
		Str("sha256", result.Checksum).
		Dur("duration", result.Duration).
		Msg("Backup created")
	return result, nil
}

func (m *Manager) pathFor(t time.Time) string {
	return filepath.Join(m.cfg.Dir, filePrefix+t.Format(timestampLayout)+fileSuffix)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeChecksum writes a sha256sum-compatible sidecar.
func writeChecksum(path, checksum string) error {
	line := fmt.Sprintf("%s  %s\n", checksum, filepath.Base(path))
	return os.WriteFile(path+checksumSuffix, []byte(line), 0o640)
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
