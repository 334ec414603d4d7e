// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package models

import "time"

// ESI public endpoint models. These need no authorization.

// ESICharacterInfo is GET /characters/{character_id}/.
type ESICharacterInfo struct {
	Name           string    `json:"name"`
	CorporationID  int64     `json:"corporation_id"`
	AllianceID     int64     `json:"alliance_id,omitempty"`
	Birthday       time.Time `json:"birthday"`
	SecurityStatus float64   `json:"security_status,omitempty"`
	Description    string    `json:"description,omitempty"`
}

// ESICorporationInfo is GET /corporations/{corporation_id}/.
type ESICorporationInfo struct {
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker"`
	AllianceID  int64   `json:"alliance_id,omitempty"`
	MemberCount int     `json:"member_count"`
	TaxRate     float64 `json:"tax_rate"`
	CEOID       int64   `json:"ceo_id"`
	Description string  `json:"description,omitempty"`
}

// ToCorporation converts the ESI response into the stored model.
func (c *ESICorporationInfo) ToCorporation(id int64, now time.Time) *Corporation {
	return &Corporation{
		CorporationID: id,
		Name:          c.Name,
		Ticker:        c.Ticker,
		AllianceID:    c.AllianceID,
		MemberCount:   c.MemberCount,
		TaxRate:       c.TaxRate,
		CEOID:         c.CEOID,
		Description:   c.Description,
		LastUpdate:    now,
	}
}

// ESIServerStatus is GET /status/.
type ESIServerStatus struct {
	Players       int       `json:"players"`
	ServerVersion string    `json:"server_version"`
	StartTime     time.Time `json:"start_time"`
	VIP           bool      `json:"vip,omitempty"`
}

// ESIErrorBody is the JSON error envelope ESI returns on failures.
type ESIErrorBody struct {
	Error string `json:"error"`
}
