// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package sync

import (
	"errors"
	"fmt"
	"time"
)

// ErrSkipped marks a fetch that was not attempted because the character's
// credential had already been rejected, or the store had failed, earlier in
// the same sync.
var ErrSkipped = errors.New("skipped")

// FetchResult is the outcome of one payload fetch.
type FetchResult struct {
	Kind string
	Err  error // nil on success
}

// Result summarizes one SyncCharacter call.
type Result struct {
	CharacterID       int64
	Fetches           []FetchResult // In fetch order
	CredentialExpired bool
	CorporationErr    error // Profile/corporation refresh; fails the sync only on a storage failure
	StorageErr        error // Set when a store read or write failed; the sync stopped there
	Duration          time.Duration

	affiliationStorageErr bool
}

func (r *Result) add(kind string, err error) {
	r.Fetches = append(r.Fetches, FetchResult{Kind: kind, Err: err})
}

// Succeeded returns the number of fetches that succeeded.
func (r *Result) Succeeded() int {
	n := 0
	for _, f := range r.Fetches {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the kinds that did not succeed, including skipped ones.
func (r *Result) Failed() []string {
	var kinds []string
	for _, f := range r.Fetches {
		if f.Err != nil {
			kinds = append(kinds, f.Kind)
		}
	}
	return kinds
}

// Err returns nil if every fetch succeeded, otherwise the joined fetch
// errors. A corporation refresh failure is included only when it was a
// storage failure.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Fetches {
		if f.Err != nil && !errors.Is(f.Err, ErrSkipped) {
			errs = append(errs, fmt.Errorf("%s: %w", f.Kind, f.Err))
		}
	}
	if r.affiliationStorageErr {
		errs = append(errs, fmt.Errorf("%s: %w", KindCorporation, r.StorageErr))
	}
	return errors.Join(errs...)
}
