// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package store is the BadgerDB-backed document store for EVE Tracker.

It holds three record kinds, each under its own key prefix:

	character:<id>    models.Character (credentials + cached payloads)
	corporation:<id>  models.Corporation
	session:<id>      models.Session

Records are JSON documents encoded with goccy/go-json. Numeric IDs are
zero-padded in keys so prefix iteration returns records in ascending ID
order.

# Field-level Updates

Concurrent jobs touch the same character: the data refresh job writes
payloads while the token job writes credentials. Every mutation is a
read-modify-write closure run inside a single Badger transaction
(UpdateCharacter), retried on badger.ErrConflict, so one writer never
overwrites another writer's fields with a stale copy.

# Token Encryption

When opened with an encryption key, access and refresh tokens are sealed
with AES-256-GCM before they reach disk (key derived with HKDF-SHA256).
Values written before encryption was enabled are still readable.

# Errors

Every Badger failure is wrapped in *StorageError carrying the operation and
key. Missing records return ErrNotFound (use errors.Is).
*/
package store
