// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package models

import "time"

// Character is a tracked EVE Online character.
// Created by the login surface on first SSO login, mutated by every sync or
// credential renewal, never deleted by the background workers.
type Character struct {
	CharacterID     int64  `json:"character_id"`               // EVE character ID (unique)
	Name            string `json:"name"`                       // Display name
	CorporationID   int64  `json:"corporation_id"`             // Current corporation
	CorporationName string `json:"corporation_name,omitempty"` // Cached from the corporation upsert
	AllianceID      int64  `json:"alliance_id,omitempty"`      // 0 when not in an alliance
	AllianceName    string `json:"alliance_name,omitempty"`

	Credentials Credentials `json:"credentials"`

	IsAdmin   bool      `json:"is_admin,omitempty"`
	LastLogin time.Time `json:"last_login"`

	// LastUpdate is the time of the most recent successful payload fetch.
	LastUpdate *time.Time `json:"last_update,omitempty"`

	Wallet    *Wallet            `json:"wallet,omitempty"`
	Assets    *AssetSnapshot     `json:"assets,omitempty"`
	Skills    *SkillSnapshot     `json:"skills,omitempty"`
	Standings *StandingsSnapshot `json:"standings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credentials holds the OAuth tokens for one character.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Expired reports whether the access token is unusable at now (now >= expiry).
func (c *Credentials) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ExpiresWithin reports whether the token is still valid at now but expires
// before now+window. This is the renewal job's selection rule.
func (c *Credentials) ExpiresWithin(now time.Time, window time.Duration) bool {
	return c.ExpiresAt.After(now) && c.ExpiresAt.Before(now.Add(window))
}

// HasScope reports whether scope was granted.
func (c *Credentials) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ESI scopes requested at login and needed by the sync engine.
const (
	ScopePublicData        = "publicData"
	ScopeWallet            = "esi-wallet.read_character_wallet.v1"
	ScopeStandings         = "esi-characters.read_standings.v1"
	ScopeSkills            = "esi-skills.read_skills.v1"
	ScopeAssets            = "esi-assets.read_assets.v1"
	ScopeCorporationMember = "esi-corporations.read_corporation_membership.v1"
)

// DefaultScopes is the scope set requested by the login flow.
var DefaultScopes = []string{
	ScopePublicData,
	ScopeWallet,
	ScopeStandings,
	ScopeSkills,
	ScopeAssets,
	ScopeCorporationMember,
}

// Corporation is an EVE corporation, upserted by CorporationID.
type Corporation struct {
	CorporationID int64     `json:"corporation_id"`
	Name          string    `json:"name"`
	Ticker        string    `json:"ticker"`
	AllianceID    int64     `json:"alliance_id,omitempty"`
	MemberCount   int       `json:"member_count"`
	TaxRate       float64   `json:"tax_rate"`
	CEOID         int64     `json:"ceo_id"`
	Description   string    `json:"description,omitempty"`
	LastUpdate    time.Time `json:"last_update"`
}

// Session is a web login session. The maintenance job deletes expired ones.
type Session struct {
	ID          string            `json:"id"`
	CharacterID int64             `json:"character_id"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
