// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"errors"
	"strings"
	"testing"
)

func TestNewTokenCipher_EmptyKey(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenCipher(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewTokenCipher("a-long-enough-secret-for-tokens!")
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Seal("eyJhbGciOi.token")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sealed, sealedPrefix) {
		t.Errorf("sealed value missing prefix: %q", sealed)
	}

	again, _ := c.Seal("eyJhbGciOi.token")
	if again == sealed {
		t.Error("expected a fresh nonce per Seal")
	}

	resealed, _ := c.Seal(sealed)
	if resealed != sealed {
		t.Error("sealing a sealed value should be a no-op")
	}

	plain, err := c.Open(sealed)
	if err != nil || plain != "eyJhbGciOi.token" {
		t.Errorf("Open() = %q, %v", plain, err)
	}
}

func TestTokenCipher_PassThroughAndTamper(t *testing.T) {
	t.Parallel()

	c, _ := NewTokenCipher("secret-one-secret-one-secret-one")
	other, _ := NewTokenCipher("secret-two-secret-two-secret-two")

	if got, err := c.Open("legacy-plaintext"); err != nil || got != "legacy-plaintext" {
		t.Errorf("unsealed value should pass through, got %q, %v", got, err)
	}
	if got, _ := c.Seal(""); got != "" {
		t.Errorf("empty value should stay empty, got %q", got)
	}

	sealed, _ := c.Seal("token")
	if _, err := other.Open(sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong key: expected ErrDecryptionFailed, got %v", err)
	}
	if _, err := c.Open(sealedPrefix + "!!!"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("bad base64: expected ErrDecryptionFailed, got %v", err)
	}
	if _, err := c.Open(sealedPrefix + "AAAA"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("short data: expected ErrDecryptionFailed, got %v", err)
	}
}
