// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	tokenEncryptionSalt = "evetracker-token-store"
	tokenEncryptionInfo = "sso-token-encryption-v1"

	// sealedPrefix marks an encrypted value; unmarked values are plaintext
	// written before encryption was enabled.
	sealedPrefix = "enc:v1:"

	aesKeySize   = 32
	gcmNonceSize = 12
)

var (
	// ErrEmptyKey is returned when an empty encryption key is provided.
	ErrEmptyKey = errors.New("encryption key cannot be empty")

	// ErrDecryptionFailed is returned for tampered data or a wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")
)

// TokenCipher seals OAuth tokens with AES-256-GCM.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher derives a 256-bit key from secret with HKDF-SHA256.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}

	key := make([]byte, aesKeySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(tokenEncryptionSalt), []byte(tokenEncryptionInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

// Seal encrypts plaintext. Empty input stays empty.
func (c *TokenCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" || strings.HasPrefix(plaintext, sealedPrefix) {
		return plaintext, nil
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Unsealed values pass through.
func (c *TokenCipher) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(data) < gcmNonceSize+c.aead.Overhead() {
		return "", ErrDecryptionFailed
	}

	plaintext, err := c.aead.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
