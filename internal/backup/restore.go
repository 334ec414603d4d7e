// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package backup

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/evetracker/internal/logging"
)

// Verify checks a backup against its checksum sidecar. A backup without a
// sidecar only needs a valid name.
func (m *Manager) Verify(path string) error {
	if _, ok := parseBackupName(filepath.Base(path)); !ok {
		return fmt.Errorf("%w: unexpected file name %s", ErrInvalidBackup, filepath.Base(path))
	}

	want, err := readChecksum(path + checksumSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	got, err := fileChecksum(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: checksum mismatch for %s", ErrInvalidBackup, filepath.Base(path))
	}
	return nil
}

// Restore loads a backup into the store after verifying it. A safety backup
// of the current state is taken first; if that fails the restore is aborted.
func (m *Manager) Restore(ctx context.Context, path string) error {
	if err := m.Verify(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	safety, err := m.createLocked(ctx)
	if err != nil {
		return fmt.Errorf("pre-restore backup: %w", err)
	}

	//nolint:gosec // G304: path is an operator-supplied backup file
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	defer gz.Close()

	if err := m.db.Load(ctx, gz); err != nil {
		return fmt.Errorf("load backup %s: %w", filepath.Base(path), err)
	}

	logging.Info().
		Str("path", path).
		Str("pre_restore_backup", safety.Path).
		Msg("Backup restored")
	return nil
}

func readChecksum(path string) (string, error) {
	//nolint:gosec // G304: sidecar path derives from the backup path
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty checksum file %s", ErrInvalidBackup, filepath.Base(path))
	}
	return strings.ToLower(fields[0]), nil
}

func fileChecksum(path string) (string, error) {
	//nolint:gosec // G304: path is a backup file
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash backup: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
