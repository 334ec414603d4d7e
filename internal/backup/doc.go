// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

// Package backup writes, prunes and restores full dumps of the credential
// store.
//
// # Backup Files
//
// Each backup is a gzip-compressed BadgerDB full backup stream named
//
//	evetracker-<UTC timestamp>.bak.gz
//
// with a sha256sum-format sidecar (<name>.sha256) holding the checksum of
// the compressed file. A dump is written to a temporary file in the backup
// directory and renamed into place only once it is complete, so a crash
// never leaves a truncated dump under a final name.
//
// # Retention
//
// ApplyRetention deletes dumps older than the retention period, judged by
// the timestamp in the file name. The newest dump is never deleted, however
// old it is.
//
// # Offsite Copies
//
// When Config.Offsite is set, Offload uploads a created dump and its sidecar
// to the object store (S3Store for AWS S3, Cloudflare R2 or MinIO) and
// ApplyRetention prunes the bucket with the same rule as the directory.
// Only keys under OffsitePrefix that parse as backup names are considered.
//
// # Restore
//
// Restore verifies the checksum (when the sidecar exists), takes a safety
// backup of the current state, and loads the dump into the open store.
// Keys in the dump overwrite existing keys; keys absent from the dump are
// left in place.
package backup
