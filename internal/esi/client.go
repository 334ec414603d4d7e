// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package esi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/evetracker/internal/cache"
	"github.com/tomtom215/evetracker/internal/config"
	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/sso"
)

// StatusErrorLimited is ESI's "error limited" status, sent once a client
// has produced too many errors in the current window.
const StatusErrorLimited = 420

const (
	breakerName  = "esi"
	maxErrorBody = 4096
	maxBackoff   = 60 * time.Second
)

// CredentialSource loads a character's stored credential.
type CredentialSource interface {
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
}

// CredentialRenewer exchanges a character's renewal credential and persists
// the result when the stored credential has expired. *sso.Renewer
// implements it.
type CredentialRenewer interface {
	RenewExpired(ctx context.Context, characterID int64) (*models.Credentials, error)
}

// Client talks to ESI on behalf of stored characters.
type Client struct {
	baseURL    string
	datasource string
	userAgent  string
	maxRetries int
	baseDelay  time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*response]

	// public caches successful public GET bodies until their Expires time.
	// nil when disabled.
	public *cache.LRU[[]byte]

	creds   CredentialSource
	renewer CredentialRenewer
	now     func() time.Time
}

// response is a fully read ESI response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// call describes one logical request.
type call struct {
	characterID int64
	public      bool
	method      string
	path        string
	query       url.Values
	body        interface{}
}

// NewClient creates an ESI client. creds and renewer may be nil when only
// public endpoints are used.
func NewClient(cfg config.ESIConfig, creds CredentialSource, renewer CredentialRenewer) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		datasource: cfg.Datasource,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Second,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		creds:      creds,
		renewer:    renewer,
		now:        time.Now,
	}
	c.breaker = newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout)
	if cfg.PublicCacheSize > 0 {
		c.public = cache.New[[]byte](cfg.PublicCacheSize)
	}
	return c
}

// Request performs an authenticated call for characterID and decodes the
// JSON response into out (which may be nil). path is relative to the base
// URL, e.g. "/characters/90000001/wallet/".
func (c *Client) Request(ctx context.Context, characterID int64, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, call{characterID: characterID, method: method, path: path, body: body})
	if err != nil {
		return err
	}
	return decode(resp, path, out)
}

// RequestPublic performs an unauthenticated call. GET responses carrying a
// future Expires header are served from memory until that time.
func (c *Client) RequestPublic(ctx context.Context, method, path string, body, out interface{}) error {
	cacheable := c.public != nil && method == http.MethodGet && body == nil
	if cacheable {
		if data, ok := c.public.Get(path); ok {
			metrics.RecordESICacheLookup(true)
			return decode(&response{status: http.StatusOK, body: data}, path, out)
		}
		metrics.RecordESICacheLookup(false)
	}

	resp, err := c.do(ctx, call{public: true, method: method, path: path, body: body})
	if err != nil {
		return err
	}
	if cacheable {
		if expires, ok := expiresAt(resp.header); ok {
			c.public.Set(path, resp.body, expires)
		}
	}
	return decode(resp, path, out)
}

// expiresAt parses the Expires header ESI sends with cacheable responses.
func expiresAt(h http.Header) (time.Time, bool) {
	v := h.Get("Expires")
	if v == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// accessToken returns a usable access token for the character, renewing it
// first if its expiry has passed.
func (c *Client) accessToken(ctx context.Context, characterID int64) (string, error) {
	if c.creds == nil || c.renewer == nil {
		return "", fmt.Errorf("esi: authenticated request for character %d without a credential source", characterID)
	}
	character, err := c.creds.GetCharacter(ctx, characterID)
	if err != nil {
		return "", fmt.Errorf("load credentials for character %d: %w", characterID, err)
	}
	if !character.Credentials.Expired(c.now()) {
		return character.Credentials.AccessToken, nil
	}

	logging.Ctx(ctx).Debug().Int64("character_id", characterID).Msg("Access token expired, renewing")
	creds, err := c.renewer.RenewExpired(ctx, characterID)
	if err != nil {
		return "", renewalFailure(err)
	}
	return creds.AccessToken, nil
}

// renewalFailure keeps credential errors as they are and reports every other
// failed exchange as a RemoteAPIError.
func renewalFailure(err error) error {
	if sso.IsCredentialExpired(err) {
		return err
	}
	var re *sso.RenewalError
	if errors.As(err, &re) {
		return &RemoteAPIError{StatusCode: re.StatusCode, Message: "credential renewal: " + re.Message, Path: "sso/token", Err: err}
	}
	return err
}

func (c *Client) do(ctx context.Context, cl call) (*response, error) {
	var token string
	if !cl.public {
		var err error
		if token, err = c.accessToken(ctx, cl.characterID); err != nil {
			return nil, err
		}
	}

	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	endpoint := endpointLabel(cl.path)
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.doWithRetry(ctx, cl, endpoint, token, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Ctx(ctx).Warn().Str("endpoint", endpoint).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, &RemoteAPIError{Message: "circuit breaker open", Path: cl.path, Err: err}
	}

	status := 0
	if resp != nil {
		status = resp.status
	} else {
		var re *RemoteAPIError
		if errors.As(err, &re) {
			status = re.StatusCode
		}
	}
	metrics.RecordESIRequest(endpoint, status, time.Since(start))
	return resp, err
}

// doWithRetry sends the request, retrying 420 and 429 with exponential
// backoff. Retry-After (or ESI's X-Esi-Error-Limit-Reset) overrides the
// computed delay.
func (c *Client) doWithRetry(ctx context.Context, cl call, endpoint, token string, payload []byte) (*response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RemoteAPIError{Message: "rate limiter: " + err.Error(), Path: cl.path, Err: err}
		}

		resp, err := c.send(ctx, cl, token, payload)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			return resp, nil
		case resp.status == StatusErrorLimited || resp.status == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return nil, &RemoteAPIError{
					StatusCode: resp.status,
					Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
					Path:       cl.path,
				}
			}
			delay := c.retryDelay(resp, attempt)
			metrics.ESIRetriesTotal.WithLabelValues(endpoint).Inc()
			logging.Ctx(ctx).Warn().
				Str("endpoint", endpoint).
				Int("status", resp.status).
				Int("attempt", attempt+1).
				Dur("retry_after", delay).
				Msg("ESI throttled request, retrying")
			if err := sleep(ctx, delay); err != nil {
				return nil, &RemoteAPIError{StatusCode: resp.status, Message: "retry cancelled", Path: cl.path, Err: err}
			}
		default:
			return nil, &RemoteAPIError{StatusCode: resp.status, Message: errorMessage(resp), Path: cl.path}
		}
	}
}

func (c *Client) send(ctx context.Context, cl call, token string, payload []byte) (*response, error) {
	u, err := url.Parse(c.baseURL + cl.path)
	if err != nil {
		return nil, &RemoteAPIError{Message: "invalid path", Path: cl.path, Err: err}
	}
	q := u.Query()
	for k, vs := range cl.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("datasource", c.datasource)
	u.RawQuery = q.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, &RemoteAPIError{Message: "build request", Path: cl.path, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteAPIError{Message: err.Error(), Path: cl.path, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RemoteAPIError{StatusCode: httpResp.StatusCode, Message: "read body: " + err.Error(), Path: cl.path, Err: err}
	}
	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

func (c *Client) retryDelay(resp *response, attempt int) time.Duration {
	delay := c.baseDelay * (1 << attempt)
	for _, h := range []string{"Retry-After", "X-Esi-Error-Limit-Reset"} {
		if v := resp.header.Get(h); v != "" {
			if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
				break
			}
		}
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func decode(resp *response, path string, out interface{}) error {
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &RemoteAPIError{StatusCode: resp.status, Message: "decode response: " + err.Error(), Path: path, Err: err}
	}
	return nil
}

func errorMessage(resp *response) string {
	body := resp.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var eb models.ESIErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(resp.status)
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel turns a concrete path into a low-cardinality metrics label:
// /characters/90000001/wallet/ -> /characters/{id}/wallet/
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	// Applied twice because adjacent matches share their slash.
	for i := 0; i < 2; i++ {
		path = numericSegment.ReplaceAllString(path, "/{id}$1")
	}
	return path
}
