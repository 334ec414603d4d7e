// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package sso

import (
	"errors"
	"fmt"
)

// CredentialExpiredError means the renewal credential is no longer accepted.
type CredentialExpiredError struct {
	CharacterID int64  // 0 when raised by Client, set by Renewer
	Reason      string // SSO error code, e.g. "invalid_grant"
}

func (e *CredentialExpiredError) Error() string {
	if e.CharacterID == 0 {
		return fmt.Sprintf("refresh token rejected: %s", e.Reason)
	}
	return fmt.Sprintf("refresh token rejected for character %d: %s", e.CharacterID, e.Reason)
}

// IsCredentialExpired reports whether err is or wraps a CredentialExpiredError.
func IsCredentialExpired(err error) bool {
	var ce *CredentialExpiredError
	return errors.As(err, &ce)
}

// RenewalError is a retryable renewal failure.
type RenewalError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *RenewalError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token renewal failed: %s", e.Message)
	}
	return fmt.Sprintf("token renewal failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *RenewalError) Unwrap() error {
	return e.Err
}
