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
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
)

// Object is a backup stored in the offsite bucket.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the remote bucket offsite copies are kept in. *S3Store
// implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// OffsiteEnabled reports whether backups are copied to an object store.
func (m *Manager) OffsiteEnabled() bool {
	return m.cfg.Offsite != nil
}

// Offload uploads a created backup and its checksum sidecar to the object
// store. It is a no-op when no object store is configured.
func (m *Manager) Offload(ctx context.Context, res *Result) error {
	if m.cfg.Offsite == nil || res == nil {
		return nil
	}

	start := time.Now()
	key := m.objectKey(filepath.Base(res.Path))
	err := m.upload(ctx, res.Path, key)
	if err == nil {
		if sumErr := m.upload(ctx, res.Path+checksumSuffix, key+checksumSuffix); sumErr != nil && !errors.Is(sumErr, os.ErrNotExist) {
			logging.Warn().Err(sumErr).Str("key", key).Msg("Failed to upload backup checksum")
		}
	}
	metrics.RecordBackupOffload(err)
	if err != nil {
		return fmt.Errorf("offload %s: %w", filepath.Base(res.Path), err)
	}

	logging.Info().
		Str("key", key).
		Int64("size_bytes", res.Size).
		Dur("duration", time.Since(start)).
		Msg("Backup copied offsite")
	return nil
}

func (m *Manager) upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return m.cfg.Offsite.Upload(ctx, key, f, info.Size())
}

// applyOffsiteRetention mirrors ApplyRetention for the object store: copies
// older than the cutoff are deleted, the newest is always kept.
func (m *Manager) applyOffsiteRetention(ctx context.Context, cutoff time.Time) (int, error) {
	objects, err := m.cfg.Offsite.List(ctx, m.objectKey(filePrefix))
	if err != nil {
		return 0, fmt.Errorf("list offsite backups: %w", err)
	}

	type remote struct {
		key       string
		createdAt time.Time
	}
	var backups []remote
	for _, o := range objects {
		createdAt, ok := parseBackupName(path.Base(o.Key))
		if !ok {
			continue
		}
		backups = append(backups, remote{key: o.Key, createdAt: createdAt})
	}
	if len(backups) <= 1 {
		return 0, nil
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].createdAt.After(backups[j].createdAt)
	})

	deleted := 0
	var errs []error
	for _, b := range backups[1:] {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !b.createdAt.Before(cutoff) {
			continue
		}
		if err := m.cfg.Offsite.Delete(ctx, b.key); err != nil {
			errs = append(errs, fmt.Errorf("delete offsite %s: %w", b.key, err))
			continue
		}
		if err := m.cfg.Offsite.Delete(ctx, b.key+checksumSuffix); err != nil {
			logging.Warn().Err(err).Str("key", b.key).Msg("Failed to delete offsite backup checksum")
		}
		deleted++
	}

	if deleted > 0 {
		logging.Info().Int("deleted", deleted).Msg("Offsite backup retention applied")
	}
	return deleted, errors.Join(errs...)
}

func (m *Manager) objectKey(name string) string {
	prefix := strings.Trim(m.cfg.OffsitePrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
