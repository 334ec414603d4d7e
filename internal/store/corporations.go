// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/evetracker/internal/models"
)

// UpsertCorporation inserts or replaces a corporation by ID.
func (s *Store) UpsertCorporation(ctx context.Context, corp *models.Corporation) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := corporationKey(corp.CorporationID)
	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, key, corp)
	})
	return storageErr("upsert", string(key), err)
}

// GetCorporation loads a corporation by ID.
func (s *Store) GetCorporation(ctx context.Context, id int64) (*models.Corporation, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := corporationKey(id)
	var corp models.Corporation
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, &corp)
	})
	if err != nil {
		return nil, storageErr("get", string(key), err)
	}
	return &corp, nil
}

// CountCorporations returns the number of stored corporations.
func (s *Store) CountCorporations(ctx context.Context) (int, error) {
	return s.count(ctx, corporationKeyPrefix)
}
