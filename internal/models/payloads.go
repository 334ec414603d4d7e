// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package models

import "time"

// MaxJournalEntries caps the stored wallet journal.
const MaxJournalEntries = 100

// ============================================================================
// Wallet - GET /characters/{id}/wallet/ and /wallet/journal/
// ============================================================================

// Wallet is the cached wallet payload.
type Wallet struct {
	Balance   float64        `json:"balance"`
	Journal   []JournalEntry `json:"journal"` // Newest first, at most MaxJournalEntries
	FetchedAt time.Time      `json:"fetched_at"`
}

// JournalEntry is one wallet journal line as returned by ESI.
type JournalEntry struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	RefType       string    `json:"ref_type"`                  // e.g. "bounty_prizes", "market_transaction"
	Amount        float64   `json:"amount,omitempty"`          // Signed ISK change
	Balance       float64   `json:"balance,omitempty"`         // Balance after the entry
	Description   string    `json:"description"`
	FirstPartyID  int64     `json:"first_party_id,omitempty"`
	SecondPartyID int64     `json:"second_party_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	ContextID     int64     `json:"context_id,omitempty"`
	ContextIDType string    `json:"context_id_type,omitempty"`
}

// NewWallet builds a Wallet, truncating the journal to MaxJournalEntries.
func NewWallet(balance float64, journal []JournalEntry, fetchedAt time.Time) *Wallet {
	if len(journal) > MaxJournalEntries {
		journal = journal[:MaxJournalEntries]
	}
	return &Wallet{Balance: balance, Journal: journal, FetchedAt: fetchedAt}
}

// ============================================================================
// Assets - GET /characters/{id}/assets/
// ============================================================================

// AssetSnapshot is the cached asset list.
type AssetSnapshot struct {
	Items     []Asset   `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Asset is one item as returned by ESI.
type Asset struct {
	ItemID          int64  `json:"item_id"`
	TypeID          int32  `json:"type_id"`
	LocationID      int64  `json:"location_id"`
	LocationFlag    string `json:"location_flag"` // e.g. "Hangar", "Cargo"
	LocationType    string `json:"location_type"` // station, solar_system, item, other
	Quantity        int32  `json:"quantity"`
	IsSingleton     bool   `json:"is_singleton"`
	IsBlueprintCopy bool   `json:"is_blueprint_copy,omitempty"`
}

// ============================================================================
// Skills - GET /characters/{id}/skills/
// ============================================================================

// SkillSnapshot is the cached skills payload; it mirrors the ESI response.
type SkillSnapshot struct {
	Skills        []Skill   `json:"skills"`
	TotalSP       int64     `json:"total_sp"`
	UnallocatedSP int64     `json:"unallocated_sp,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Skill is one trained skill.
type Skill struct {
	SkillID            int32 `json:"skill_id"`
	ActiveSkillLevel   int   `json:"active_skill_level"`
	TrainedSkillLevel  int   `json:"trained_skill_level"`
	SkillpointsInSkill int64 `json:"skillpoints_in_skill"`
}

// ============================================================================
// Standings - GET /characters/{id}/standings/
// ============================================================================

// StandingsSnapshot is the cached standings list.
type StandingsSnapshot struct {
	Entries   []Standing `json:"entries"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Standing is one NPC standing.
type Standing struct {
	FromID   int64   `json:"from_id"`
	FromType string  `json:"from_type"` // agent, npc_corp, faction
	Standing float64 `json:"standing"`  // -10.0 to 10.0
}
