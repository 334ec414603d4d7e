// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package sso

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/evetracker/internal/config"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4096

// Token is the SSO token endpoint response.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"` // Seconds
	ExpiresAt    time.Time `json:"-"`          // Computed: now + ExpiresIn
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client exchanges refresh tokens with EVE SSO.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time
}

// NewClient creates an SSO client from configuration.
func NewClient(cfg config.SSOConfig) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		now:          time.Now,
	}
}

// Refresh performs the refresh_token grant.
//
// HTTP 400/401 responses mean the refresh token itself was rejected and
// return *CredentialExpiredError, except "invalid_client", which is an
// application misconfiguration and returns *RenewalError.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, &CredentialExpiredError{Reason: "no refresh token stored"}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RenewalError{Message: "build request", Err: err}
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RenewalError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyFailure(resp)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, &RenewalError{StatusCode: resp.StatusCode, Message: "decode token response", Err: err}
	}
	if token.AccessToken == "" {
		return nil, &RenewalError{StatusCode: resp.StatusCode, Message: "token response missing access_token"}
	}
	if token.ExpiresIn <= 0 {
		return nil, &RenewalError{StatusCode: resp.StatusCode, Message: "token response has non-positive expires_in"}
	}

	token.ExpiresAt = c.now().UTC().Add(time.Duration(token.ExpiresIn) * time.Second)
	return &token, nil
}

func classifyFailure(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort error detail

	var er errorResponse
	_ = json.Unmarshal(body, &er) //nolint:errcheck // body may not be JSON

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized:
		if er.Error == "invalid_client" {
			return &RenewalError{StatusCode: resp.StatusCode, Message: "invalid_client: check EVE_CLIENT_ID/EVE_CLIENT_SECRET"}
		}
		reason := er.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &CredentialExpiredError{Reason: reason}
	default:
		msg := er.ErrorDescription
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &RenewalError{StatusCode: resp.StatusCode, Message: msg}
	}
}
