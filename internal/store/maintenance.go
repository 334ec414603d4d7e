// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"context"
	"errors"
	"io"

	"github.com/dgraph-io/badger/v4"
)

// maxPendingWrites bounds in-flight writes while loading a backup.
const maxPendingWrites = 256

// RunGC runs value log garbage collection until nothing more can be
// rewritten and returns the number of files rewritten. In-memory stores
// have no value log and return 0.
func (s *Store) RunGC(ctx context.Context, discardRatio float64) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, storageErr("gc", "", err)
		}
		rewritten++
	}
}

// Backup writes a full snapshot of the database to w and returns the
// version it is consistent at.
func (s *Store) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	version, err := s.db.Backup(w, 0)
	if err != nil {
		return 0, storageErr("backup", "", err)
	}
	return version, nil
}

// Load restores a snapshot produced by Backup. Existing keys present in
// the snapshot are overwritten; other keys are kept.
func (s *Store) Load(ctx context.Context, r io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Load(r, maxPendingWrites); err != nil {
		return storageErr("load", "", err)
	}
	return nil
}

// Size returns the on-disk LSM and value log sizes in bytes.
func (s *Store) Size() (lsm, vlog int64) {
	return s.db.Size()
}
