// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package sync refreshes one character's cached ESI payloads.

Engine.SyncCharacter fetches, in order:

 1. Wallet balance and journal (journal truncated to the newest 100 entries)
 2. Assets (all pages)
 3. Skills
 4. Standings

Each successful fetch is written to the store immediately in its own
read-modify-write, together with the character's LastUpdate. A failed fetch
is logged and recorded in the Result and the remaining fetches still run,
so a sync can partially succeed. The exception is a rejected renewal
credential (sso.CredentialExpiredError): the remaining authenticated fetches
would fail the same way and are skipped. A storage failure
(store.IsStorageFailure) ends the sync at once; it is kept in
Result.StorageErr so the calling job can end its run.

After the authenticated fetches, the character's public profile is refreshed
(name, corporation, alliance) and the corporation is upserted from the
public corporation endpoint. Failures of this step are recorded in the
Result but never fail the sync.

Thread Safety:

Engine holds no mutable state and is safe for concurrent use. Concurrent
syncs of the same character do not lose fields because every store write
is a per-field transaction retried on conflict.
*/
package sync
