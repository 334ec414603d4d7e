// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/evetracker/internal/models"
)

// CreateSession stores a new session, assigning an ID if empty.
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now().UTC()
	}

	key := sessionKey(sess.ID)
	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, key, sess)
	})
	return storageErr("create", string(key), err)
}

// GetSession loads a session by ID. Expired sessions are still returned;
// callers check IsExpired.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := sessionKey(id)
	var sess models.Session
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, &sess)
	})
	if err != nil {
		return nil, storageErr("get", string(key), err)
	}
	return &sess, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := sessionKey(id)
	err := s.update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return storageErr("delete", string(key), err)
}

// DeleteExpiredSessions removes every session with ExpiresAt <= now and
// returns how many were removed. Undecodable session records count as
// expired.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var sess models.Session
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			})
			if err != nil || sess.IsExpired(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("scan", sessionKeyPrefix, err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	// WriteBatch splits large deletes across transactions as needed.
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range expired {
		if err := wb.Delete(key); err != nil {
			return 0, storageErr("delete", string(key), err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, storageErr("delete", sessionKeyPrefix, err)
	}
	return len(expired), nil
}

// CountSessions returns the number of stored sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	return s.count(ctx, sessionKeyPrefix)
}
