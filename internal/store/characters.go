// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/evetracker/internal/models"
)

// SaveCharacter creates or fully replaces a character record.
// The login surface uses it on SSO callback; workers use the field-level
// setters below instead.
func (s *Store) SaveCharacter(ctx context.Context, c *models.Character) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := characterKey(c.CharacterID)
	now := s.now().UTC()
	rec := *c
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	err := s.update(func(txn *badger.Txn) error {
		var existing models.Character
		if err := getJSON(txn, key, &existing); err == nil && !existing.CreatedAt.IsZero() {
			rec.CreatedAt = existing.CreatedAt
		}
		return s.putCharacter(txn, &rec)
	})
	return storageErr("save", string(key), err)
}

// GetCharacter loads a character by ID, with tokens decrypted.
func (s *Store) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := characterKey(id)
	var c models.Character
	err := s.db.View(func(txn *badger.Txn) error {
		return s.getCharacter(txn, key, &c)
	})
	if err != nil {
		return nil, storageErr("get", string(key), err)
	}
	return &c, nil
}

// UpdateCharacter applies fn to the stored character inside one transaction.
// fn sees the latest committed state; if another writer commits first the
// transaction is retried with fresh state. Returning an error from fn aborts
// without writing.
func (s *Store) UpdateCharacter(ctx context.Context, id int64, fn func(c *models.Character) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := characterKey(id)
	err := s.update(func(txn *badger.Txn) error {
		var c models.Character
		if err := s.getCharacter(txn, key, &c); err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return &callbackError{err: err}
		}
		c.UpdatedAt = s.now().UTC()
		return s.putCharacter(txn, &c)
	})
	var cbErr *callbackError
	if errors.As(err, &cbErr) {
		return cbErr.err
	}
	return storageErr("update", string(key), err)
}

// callbackError carries an UpdateCharacter callback's own error out of the
// transaction so it is not reported as a storage failure.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }

// SetCredentials replaces the character's OAuth credentials.
func (s *Store) SetCredentials(ctx context.Context, id int64, creds models.Credentials) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		if len(creds.Scopes) == 0 {
			creds.Scopes = c.Credentials.Scopes
		}
		c.Credentials = creds
		return nil
	})
}

// SetWallet replaces the wallet payload and stamps LastUpdate.
func (s *Store) SetWallet(ctx context.Context, id int64, w *models.Wallet) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		c.Wallet = w
		c.LastUpdate = timePtr(w.FetchedAt)
		return nil
	})
}

// SetAssets replaces the asset payload and stamps LastUpdate.
func (s *Store) SetAssets(ctx context.Context, id int64, a *models.AssetSnapshot) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		c.Assets = a
		c.LastUpdate = timePtr(a.FetchedAt)
		return nil
	})
}

// SetSkills replaces the skills payload and stamps LastUpdate.
func (s *Store) SetSkills(ctx context.Context, id int64, sk *models.SkillSnapshot) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		c.Skills = sk
		c.LastUpdate = timePtr(sk.FetchedAt)
		return nil
	})
}

// SetStandings replaces the standings payload and stamps LastUpdate.
func (s *Store) SetStandings(ctx context.Context, id int64, st *models.StandingsSnapshot) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		c.Standings = st
		c.LastUpdate = timePtr(st.FetchedAt)
		return nil
	})
}

// SetProfile refreshes the public identity fields.
func (s *Store) SetProfile(ctx context.Context, id int64, info *models.ESICharacterInfo) error {
	return s.UpdateCharacter(ctx, id, func(c *models.Character) error {
		if info.Name != "" {
			c.Name = info.Name
		}
		if c.CorporationID != info.CorporationID {
			c.CorporationName = ""
		}
		c.CorporationID = info.CorporationID
		if c.AllianceID != info.AllianceID {
			c.AllianceName = ""
		}
		c.AllianceID = info.AllianceID
		return nil
	})
}

// ListCharacters returns every character accepted by filter, in ascending
// ID order. A nil filter accepts all.
func (s *Store) ListCharacters(ctx context.Context, filter func(c *models.Character) bool) ([]*models.Character, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*models.Character
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(characterKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var c models.Character
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := s.openCredentials(&c); err != nil {
				return err
			}
			if filter == nil || filter(&c) {
				out = append(out, &c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("scan", characterKeyPrefix, err)
	}
	return out, nil
}

// ListWithValidCredentials returns characters whose access token has not
// expired at now. This is the data refresh job's selection.
func (s *Store) ListWithValidCredentials(ctx context.Context, now time.Time) ([]*models.Character, error) {
	return s.ListCharacters(ctx, func(c *models.Character) bool {
		return !c.Credentials.Expired(now)
	})
}

// ListExpiringWithin returns characters whose token is still valid at now
// but expires before now+window. This is the token renewal job's selection.
func (s *Store) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.Character, error) {
	return s.ListCharacters(ctx, func(c *models.Character) bool {
		return c.Credentials.ExpiresWithin(now, window)
	})
}

// CountCharacters returns the number of stored characters.
func (s *Store) CountCharacters(ctx context.Context) (int, error) {
	return s.count(ctx, characterKeyPrefix)
}

func (s *Store) getCharacter(txn *badger.Txn, key []byte, c *models.Character) error {
	if err := getJSON(txn, key, c); err != nil {
		return err
	}
	return s.openCredentials(c)
}

func (s *Store) putCharacter(txn *badger.Txn, c *models.Character) error {
	rec := *c
	if s.cipher != nil {
		var err error
		if rec.Credentials.AccessToken, err = s.cipher.Seal(rec.Credentials.AccessToken); err != nil {
			return err
		}
		if rec.Credentials.RefreshToken, err = s.cipher.Seal(rec.Credentials.RefreshToken); err != nil {
			return err
		}
	}
	return setJSON(txn, characterKey(rec.CharacterID), &rec)
}

func (s *Store) openCredentials(c *models.Character) error {
	if s.cipher == nil {
		return nil
	}
	var err error
	if c.Credentials.AccessToken, err = s.cipher.Open(c.Credentials.AccessToken); err != nil {
		return fmt.Errorf("character %d access token: %w", c.CharacterID, err)
	}
	if c.Credentials.RefreshToken, err = s.cipher.Open(c.Credentials.RefreshToken); err != nil {
		return fmt.Errorf("character %d refresh token: %w", c.CharacterID, err)
	}
	return nil
}

func (s *Store) count(ctx context.Context, prefix string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("count", prefix, err)
	}
	return n, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
