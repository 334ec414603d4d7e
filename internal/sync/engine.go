// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/sso"
	"github.com/tomtom215/evetracker/internal/store"
)

// Payload kinds, used in results, logs and metrics.
const (
	KindWallet      = "wallet"
	KindAssets      = "assets"
	KindSkills      = "skills"
	KindStandings   = "standings"
	KindProfile     = "profile"
	KindCorporation = "corporation"
)

// Remote is the subset of the ESI client the engine uses.
type Remote interface {
	Wallet(ctx context.Context, characterID int64) (float64, error)
	WalletJournal(ctx context.Context, characterID int64) ([]models.JournalEntry, error)
	Assets(ctx context.Context, characterID int64) ([]models.Asset, error)
	Skills(ctx context.Context, characterID int64) (*models.SkillSnapshot, error)
	Standings(ctx context.Context, characterID int64) ([]models.Standing, error)
	CharacterInfo(ctx context.Context, characterID int64) (*models.ESICharacterInfo, error)
	CorporationInfo(ctx context.Context, corporationID int64) (*models.ESICorporationInfo, error)
}

// Store is the subset of the credential store the engine uses.
type Store interface {
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
	SetWallet(ctx context.Context, id int64, w *models.Wallet) error
	SetAssets(ctx context.Context, id int64, a *models.AssetSnapshot) error
	SetSkills(ctx context.Context, id int64, sk *models.SkillSnapshot) error
	SetStandings(ctx context.Context, id int64, st *models.StandingsSnapshot) error
	SetProfile(ctx context.Context, id int64, info *models.ESICharacterInfo) error
	UpdateCharacter(ctx context.Context, id int64, fn func(c *models.Character) error) error
	UpsertCorporation(ctx context.Context, corp *models.Corporation) error
}

// Engine syncs characters against ESI.
type Engine struct {
	remote Remote
	store  Store
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(remote Remote, store Store) *Engine {
	return &Engine{remote: remote, store: store, now: time.Now}
}

// fetch is one authenticated payload refresh.
type fetch struct {
	kind string
	run  func(ctx context.Context, id int64) error
}

func (e *Engine) fetches() []fetch {
	return []fetch{
		{KindWallet, e.syncWallet},
		{KindAssets, e.syncAssets},
		{KindSkills, e.syncSkills},
		{KindStandings, e.syncStandings},
	}
}

// SyncCharacter refreshes every payload of one character. A failed remote
// fetch does not stop the others; inspect the Result for what succeeded.
// A storage failure stops the sync and is kept in Result.StorageErr.
func (e *Engine) SyncCharacter(ctx context.Context, characterID int64) *Result {
	start := time.Now()
	result := &Result{CharacterID: characterID}
	logger := logging.Ctx(ctx).With().Int64("character_id", characterID).Logger()

	for _, f := range e.fetches() {
		if result.CredentialExpired || result.StorageErr != nil {
			result.add(f.kind, ErrSkipped)
			continue
		}

		err := f.run(ctx, characterID)
		metrics.RecordSyncFetch(f.kind, err)
		result.add(f.kind, err)
		if err == nil {
			continue
		}

		switch {
		case store.IsStorageFailure(err):
			result.StorageErr = err
			logger.Error().Err(err).Str("kind", f.kind).Msg("Storage failure, abandoning sync")
		case sso.IsCredentialExpired(err):
			result.CredentialExpired = true
			logger.Warn().Err(err).Str("kind", f.kind).Msg("Credential rejected, skipping remaining fetches")
		default:
			logger.Warn().Err(err).Str("kind", f.kind).Msg("Fetch failed")
		}
	}

	if result.StorageErr == nil {
		result.CorporationErr = e.syncAffiliation(ctx, characterID)
		if store.IsStorageFailure(result.CorporationErr) {
			result.StorageErr = result.CorporationErr
			result.affiliationStorageErr = true
			logger.Error().Err(result.CorporationErr).Msg("Storage failure during corporation refresh")
		} else if result.CorporationErr != nil {
			logger.Warn().Err(result.CorporationErr).Msg("Corporation refresh failed")
		}
	}

	result.Duration = time.Since(start)
	metrics.SyncDuration.Observe(result.Duration.Seconds())
	logger.Debug().
		Int("succeeded", result.Succeeded()).
		Int("failed", len(result.Failed())).
		Dur("duration", result.Duration).
		Msg("Character sync finished")
	return result
}

func (e *Engine) syncWallet(ctx context.Context, id int64) error {
	balance, err := e.remote.Wallet(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch wallet: %w", err)
	}
	journal, err := e.remote.WalletJournal(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch wallet journal: %w", err)
	}
	if err := e.store.SetWallet(ctx, id, models.NewWallet(balance, journal, e.now().UTC())); err != nil {
		return fmt.Errorf("store wallet: %w", err)
	}
	return nil
}

func (e *Engine) syncAssets(ctx context.Context, id int64) error {
	items, err := e.remote.Assets(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch assets: %w", err)
	}
	if err := e.store.SetAssets(ctx, id, &models.AssetSnapshot{Items: items, FetchedAt: e.now().UTC()}); err != nil {
		return fmt.Errorf("store assets: %w", err)
	}
	return nil
}

func (e *Engine) syncSkills(ctx context.Context, id int64) error {
	skills, err := e.remote.Skills(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch skills: %w", err)
	}
	skills.FetchedAt = e.now().UTC()
	if err := e.store.SetSkills(ctx, id, skills); err != nil {
		return fmt.Errorf("store skills: %w", err)
	}
	return nil
}

func (e *Engine) syncStandings(ctx context.Context, id int64) error {
	entries, err := e.remote.Standings(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch standings: %w", err)
	}
	if err := e.store.SetStandings(ctx, id, &models.StandingsSnapshot{Entries: entries, FetchedAt: e.now().UTC()}); err != nil {
		return fmt.Errorf("store standings: %w", err)
	}
	return nil
}

// syncAffiliation refreshes the public profile and then upserts the
// corporation. If the profile cannot be fetched the stored corporation id
// is used.
func (e *Engine) syncAffiliation(ctx context.Context, id int64) error {
	var errs []error
	corporationID := int64(0)

	info, err := e.remote.CharacterInfo(ctx, id)
	if err == nil {
		err = e.store.SetProfile(ctx, id, info)
		corporationID = info.CorporationID
	}
	metrics.RecordSyncFetch(KindProfile, err)
	if err != nil {
		errs = append(errs, fmt.Errorf("refresh profile: %w", err))
	}

	if corporationID == 0 {
		character, err := e.store.GetCharacter(ctx, id)
		if err != nil {
			return errors.Join(append(errs, fmt.Errorf("load character: %w", err))...)
		}
		corporationID = character.CorporationID
	}
	if corporationID == 0 {
		return errors.Join(errs...)
	}

	corp, err := e.remote.CorporationInfo(ctx, corporationID)
	if err == nil {
		err = e.store.UpsertCorporation(ctx, corp.ToCorporation(corporationID, e.now().UTC()))
	}
	if err == nil {
		err = e.store.UpdateCharacter(ctx, id, func(c *models.Character) error {
			if c.CorporationID == corporationID {
				c.CorporationName = corp.Name
			}
			return nil
		})
	}
	metrics.RecordSyncFetch(KindCorporation, err)
	if err != nil {
		errs = append(errs, fmt.Errorf("refresh corporation %d: %w", corporationID, err))
	}
	return errors.Join(errs...)
}
