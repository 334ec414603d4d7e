// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package models defines data structures for EVE Tracker.

Key Components:

  - Character: a tracked EVE character with its OAuth credentials and the
    cached payloads mirrored from ESI (wallet, assets, skills, standings)
  - Corporation: the character's corporation, upserted by ID
  - Session: a login session written by the web surface and expired by the
    maintenance job
  - ESI wire types: public character/corporation info and server status

Payload Typing:

Each cached payload has its own type with a FetchedAt timestamp. A
successful fetch replaces the payload wholesale; a failed fetch leaves the
previous payload untouched. The wallet journal is capped at
MaxJournalEntries, newest first, matching ESI's ordering.

JSON Encoding:

The same json tags are used for ESI decoding and for the store's document
encoding (goccy/go-json), so a payload round-trips without a mapping layer.
Credential fields are never logged; use Character.CharacterID in log lines.
*/
package models
