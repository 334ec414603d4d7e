// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/evetracker/internal/logging"
)

// Key prefixes
const (
	characterKeyPrefix   = "character:"
	corporationKeyPrefix = "corporation:"
	sessionKeyPrefix     = "session:"
)

// maxConflictRetries bounds retries of a read-modify-write transaction
// that lost an optimistic concurrency race.
const maxConflictRetries = 10

// Config holds store settings.
type Config struct {
	Path          string
	InMemory      bool
	EncryptionKey string
	SyncWrites    bool
}

// Store is the BadgerDB document store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	cipher *TokenCipher

	mu     sync.RWMutex
	closed bool

	// now is replaceable in tests.
	now func() time.Time
}

// Open opens (or creates) the store.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil
	// Character documents are small; keep the value log modest.
	opts.ValueLogFileSize = 64 << 20

	var tc *TokenCipher
	if cfg.EncryptionKey != "" {
		var err error
		if tc, err = NewTokenCipher(cfg.EncryptionKey); err != nil {
			return nil, err
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StorageError{Op: "open", Key: cfg.Path, Err: err}
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("token_encryption", tc != nil).
		Msg("Store opened")

	return &Store{db: db, cipher: tc, now: time.Now}, nil
}

// Close closes the database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	logging.Info().Msg("Store closed")
	return nil
}

// DB exposes the underlying database for the backup service.
func (s *Store) DB() *badger.DB {
	return s.db
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func characterKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", characterKeyPrefix, id))
}

func corporationKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", corporationKeyPrefix, id))
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

// getJSON loads key into out within txn, mapping a missing key to ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return txn.Set(key, data)
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return err
}
