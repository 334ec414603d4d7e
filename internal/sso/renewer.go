// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package sso

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/models"
)

// CredentialStore is the persistence the Renewer needs.
type CredentialStore interface {
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
	SetCredentials(ctx context.Context, id int64, creds models.Credentials) error
}

// TokenRefresher is the exchange the Renewer needs; *Client implements it.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

// Renewer renews and persists a character's credentials.
type Renewer struct {
	refresher TokenRefresher
	store     CredentialStore
	group     singleflight.Group
}

// NewRenewer creates a Renewer.
func NewRenewer(refresher TokenRefresher, store CredentialStore) *Renewer {
	return &Renewer{refresher: refresher, store: store}
}

// Renew exchanges the character's refresh token and persists the result.
// On success the stored expiry is strictly after the time of the exchange.
func (r *Renewer) Renew(ctx context.Context, characterID int64) (*models.Credentials, error) {
	return r.do(ctx, characterID, false)
}

// RenewExpired renews only if the stored credential has expired when the
// exchange is about to start. A caller that read a stale credential just
// before another caller renewed it gets the stored fresh credential back.
func (r *Renewer) RenewExpired(ctx context.Context, characterID int64) (*models.Credentials, error) {
	return r.do(ctx, characterID, true)
}

func (r *Renewer) do(ctx context.Context, characterID int64, onlyExpired bool) (*models.Credentials, error) {
	v, err, shared := r.group.Do(strconv.FormatInt(characterID, 10), func() (interface{}, error) {
		return r.renew(ctx, characterID, onlyExpired)
	})
	if shared {
		logging.Ctx(ctx).Debug().Int64("character_id", characterID).Msg("Joined in-flight token renewal")
	}
	if err != nil {
		return nil, err
	}
	creds := *v.(*models.Credentials)
	return &creds, nil
}

func (r *Renewer) renew(ctx context.Context, characterID int64, onlyExpired bool) (*models.Credentials, error) {
	start := time.Now()
	character, err := r.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("load character %d: %w", characterID, err)
	}
	if onlyExpired && !character.Credentials.Expired(start) {
		creds := character.Credentials
		return &creds, nil
	}

	token, err := r.refresher.Refresh(ctx, character.Credentials.RefreshToken)
	if err != nil {
		var ce *CredentialExpiredError
		if errors.As(err, &ce) {
			ce.CharacterID = characterID
			metrics.TokenRenewalsTotal.WithLabelValues("expired").Inc()
			return nil, ce
		}
		metrics.TokenRenewalsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	creds := models.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		Scopes:       character.Credentials.Scopes,
	}
	// SSO may omit refresh_token when it does not rotate it.
	if creds.RefreshToken == "" {
		creds.RefreshToken = character.Credentials.RefreshToken
	}

	if err := r.store.SetCredentials(ctx, characterID, creds); err != nil {
		metrics.TokenRenewalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist credentials for character %d: %w", characterID, err)
	}

	metrics.TokenRenewalsTotal.WithLabelValues("success").Inc()
	metrics.TokenRenewalDuration.Observe(time.Since(start).Seconds())
	logging.Ctx(ctx).Debug().
		Int64("character_id", characterID).
		Time("expires_at", creds.ExpiresAt).
		Msg("Credentials renewed")
	return &creds, nil
}
