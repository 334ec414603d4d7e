// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package esi

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteAPIError is a non-credential failure talking to ESI or SSO.
// StatusCode is 0 for transport failures and open-breaker rejections.
type RemoteAPIError struct {
	StatusCode int
	Message    string
	Path       string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("esi %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("esi %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from ESI.
func IsNotFound(err error) bool {
	var re *RemoteAPIError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// isClientError reports 4xx responses that say nothing about the health of
// ESI itself. 420 and 429 are throttling and count against the breaker.
func isClientError(err error) bool {
	var re *RemoteAPIError
	if !errors.As(err, &re) {
		return false
	}
	switch {
	case re.StatusCode == StatusErrorLimited, re.StatusCode == http.StatusTooManyRequests:
		return false
	default:
		return re.StatusCode >= 400 && re.StatusCode < 500
	}
}
