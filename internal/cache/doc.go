// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package cache provides a thread-safe, bounded LRU cache with per-entry expiry.

The ESI client uses it to serve repeated public GET requests (character
profiles, corporation and alliance names) from memory until the expiry the
server advertised in its Expires header.

# Usage

	c := cache.New[[]byte](1000)
	c.Set("/characters/90000001/", body, expires)
	if body, ok := c.Get("/characters/90000001/"); ok {
	    // fresh copy
	}

Entries whose expiry is not in the future are never stored. Expired entries
are removed lazily by Get and in bulk by CleanupExpired.
*/
package cache
