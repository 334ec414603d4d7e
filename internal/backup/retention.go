// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
)

// List returns the backups in the backup directory, newest first. A missing
// directory yields an empty list.
func (m *Manager) List() ([]File, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		createdAt, ok := parseBackupName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Name:      e.Name(),
			Path:      filepath.Join(m.cfg.Dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: createdAt,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// ApplyRetention deletes backups created more than RetentionDays before now,
// locally and in the offsite store when one is configured. The newest backup
// in each place is always kept. Every expired file is attempted; the
// returned error joins the individual failures.
func (m *Manager) ApplyRetention(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.UTC().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)
	deleted, err := m.applyLocalRetention(ctx, cutoff)
	errs := []error{err}

	if m.cfg.Offsite != nil {
		n, err := m.applyOffsiteRetention(ctx, cutoff)
		deleted += n
		errs = append(errs, err)
	}

	metrics.BackupsPrunedTotal.Add(float64(deleted))
	return deleted, errors.Join(errs...)
}

func (m *Manager) applyLocalRetention(ctx context.Context, cutoff time.Time) (int, error) {
	files, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(files) <= 1 {
		return 0, nil
	}

	deleted := 0
	var errs []error
	for _, f := range files[1:] {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !f.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", f.Name, err))
			continue
		}
		if err := os.Remove(f.Path + checksumSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn().Err(err).Str("backup", f.Name).Msg("Failed to delete backup checksum")
		}
		deleted++
		logging.Debug().Str("backup", f.Name).Time("created_at", f.CreatedAt).Msg("Deleted expired backup")
	}

	if deleted > 0 {
		logging.Info().Int("deleted", deleted).Int("retention_days", m.cfg.RetentionDays).Msg("Backup retention applied")
	}
	return deleted, errors.Join(errs...)
}

// parseBackupName returns the creation time encoded in a backup file name.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
