// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/sso"
)

// ExpiringLister selects characters whose credential expires within window.
type ExpiringLister interface {
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.Character, error)
}

// Renewer renews and persists one character's credentials.
type Renewer interface {
	Renew(ctx context.Context, characterID int64) (*models.Credentials, error)
}

// TokenRefreshJob renews credentials before they expire. Credentials that
// have already expired are left to on-demand renewal by the ESI client.
type TokenRefreshJob struct {
	store      ExpiringLister
	renewer    Renewer
	trigger    string
	lookahead  time.Duration
	delay      time.Duration
	runOnStart bool
	now        func() time.Time
}

// NewTokenRefreshJob creates the credential renewal job.
func NewTokenRefreshJob(store ExpiringLister, renewer Renewer, trigger string, lookahead, delay time.Duration, runOnStart bool) *TokenRefreshJob {
	return &TokenRefreshJob{
		store:      store,
		renewer:    renewer,
		trigger:    trigger,
		lookahead:  lookahead,
		delay:      delay,
		runOnStart: runOnStart,
		now:        time.Now,
	}
}

func (j *TokenRefreshJob) Name() string     { return JobTokenRefresh }
func (j *TokenRefreshJob) Trigger() string  { return j.trigger }
func (j *TokenRefreshJob) RunOnStart() bool { return j.runOnStart }

// Run renews every credential with now < expiry < now+lookahead.
func (j *TokenRefreshJob) Run(ctx context.Context) error {
	characters, err := j.store.ListExpiringWithin(ctx, j.now(), j.lookahead)
	if err != nil {
		return fmt.Errorf("select characters: %w", err)
	}

	return runBatch(ctx, JobTokenRefresh, characterIDs(characters), j.delay, func(ctx context.Context, id int64) error {
		creds, err := j.renewer.Renew(ctx, id)
		if err != nil {
			if sso.IsCredentialExpired(err) {
				logging.Ctx(ctx).Warn().Int64("character_id", id).Msg("Renewal credential rejected, character must log in again")
			}
			return err
		}
		if horizon := j.now().Add(j.lookahead); !creds.ExpiresAt.After(horizon) {
			// Selected again by the next sweep.
			logging.Ctx(ctx).Warn().
				Int64("character_id", id).
				Time("expires_at", creds.ExpiresAt).
				Dur("lookahead", j.lookahead).
				Msg("Renewed credential expires inside the lookahead window; lower workers.token_refresh_lookahead below the issued token lifetime")
			return nil
		}
		logging.Ctx(ctx).Debug().Int64("character_id", id).Time("expires_at", creds.ExpiresAt).Msg("Credential renewed")
		return nil
	})
}
