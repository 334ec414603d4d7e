// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package models

import (
	"testing"
	"time"
)

func TestCredentials_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		expiry  time.Time
		expired bool
	}{
		{"in the future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"in the past", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Credentials{ExpiresAt: tt.expiry}
			if got := c.Expired(now); got != tt.expired {
				t.Errorf("Expired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestCredentials_ExpiresWithin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"expires in 20 minutes", now.Add(20 * time.Minute), true},
		{"expires in 40 minutes", now.Add(40 * time.Minute), false},
		{"already expired", now.Add(-time.Minute), false},
		{"expires exactly now", now, false},
		{"expires at window edge", now.Add(window), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Credentials{ExpiresAt: tt.expiry}
			if got := c.ExpiresWithin(now, window); got != tt.want {
				t.Errorf("ExpiresWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewWallet_TruncatesJournal(t *testing.T) {
	t.Parallel()

	journal := make([]JournalEntry, 250)
	for i := range journal {
		journal[i].ID = int64(i + 1)
	}

	w := NewWallet(1234.5, journal, time.Now())
	if len(w.Journal) != MaxJournalEntries {
		t.Fatalf("journal length = %d, want %d", len(w.Journal), MaxJournalEntries)
	}
	if w.Journal[0].ID != 1 {
		t.Errorf("expected newest entry first, got id %d", w.Journal[0].ID)
	}

	short := NewWallet(1, journal[:3], time.Now())
	if len(short.Journal) != 3 {
		t.Errorf("short journal length = %d, want 3", len(short.Journal))
	}
}

func TestESICorporationInfo_ToCorporation(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	info := ESICorporationInfo{
		Name: "Test Corp", Ticker: "TST", AllianceID: 99000001,
		MemberCount: 42, TaxRate: 0.1, CEOID: 90000001, Description: "desc",
	}
	corp := info.ToCorporation(98000001, now)

	if corp.CorporationID != 98000001 || corp.Ticker != "TST" || corp.MemberCount != 42 {
		t.Errorf("unexpected corporation: %+v", corp)
	}
	if !corp.LastUpdate.Equal(now) {
		t.Errorf("LastUpdate = %v, want %v", corp.LastUpdate, now)
	}
}

func TestSession_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	if (&Session{ExpiresAt: now.Add(time.Hour)}).IsExpired(now) {
		t.Error("future session reported expired")
	}
	if !(&Session{ExpiresAt: now.Add(-time.Hour)}).IsExpired(now) {
		t.Error("past session reported live")
	}
}
