// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/evetracker/internal/backup"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/workers"
)

type stubWorkers struct {
	status workers.Status
}

func (s *stubWorkers) Status() workers.Status { return s.status }

type stubStore struct {
	count int
	err   error
}

func (s *stubStore) CountCharacters(ctx context.Context) (int, error) { return s.count, s.err }

type stubBackups struct {
	files     []backup.File
	createErr error
	created   int
}

func (s *stubBackups) List() ([]backup.File, error) { return s.files, nil }

func (s *stubBackups) CreateBackup(ctx context.Context) (*backup.Result, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created++
	return &backup.Result{Path: "/backups/evetracker-x.bak.gz", Size: 42}, nil
}

func serve(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{err: errors.New("down")}, nil, nil))
	rec, resp := serve(t, router, http.MethodGet, "/api/v1/health/live")
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Errorf("live = %d %q, want 200 success", rec.Code, resp.Status)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		running  bool
		storeErr error
		want     int
	}{
		{"healthy", true, nil, http.StatusOK},
		{"workers stopped", false, nil, http.StatusServiceUnavailable},
		{"store unreachable", true, errors.New("closed"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(&stubWorkers{status: workers.Status{Running: tt.running}}, &stubStore{count: 3, err: tt.storeErr}, nil, nil)
			rec, _ := serve(t, NewRouter(h), http.MethodGet, "/api/v1/health/ready")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), `"workers_running"`) {
				t.Errorf("body missing health fields: %s", rec.Body.String())
			}
		})
	}
}

func TestWorkersStatus(t *testing.T) {
	t.Parallel()

	st := workers.Status{
		Running: true,
		Jobs:    []string{workers.JobDataRefresh},
		Runs: []workers.RunStatus{{
			Job:        workers.JobDataRefresh,
			Trigger:    "every 30m",
			Scheduled:  true,
			Runs:       4,
			LastFinish: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}},
	}
	rec, _ := serve(t, NewRouter(NewHandler(&stubWorkers{status: st}, &stubStore{}, nil, nil)), http.MethodGet, "/api/v1/workers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"data_refresh"`, `"every 30m"`, `"runs":4`, `"running":true`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestBackups(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, nil, nil))
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec, resp := serve(t, router, method, "/api/v1/backups")
			if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != "BACKUP_DISABLED" {
				t.Errorf("%s = %d %+v", method, rec.Code, resp.Error)
			}
		}
	})

	t.Run("list empty", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, &stubBackups{}, nil))
		rec, _ := serve(t, router, http.MethodGet, "/api/v1/backups")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
			t.Errorf("list = %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		b := &stubBackups{}
		router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, b, nil))
		rec, _ := serve(t, router, http.MethodPost, "/api/v1/backups")
		if rec.Code != http.StatusCreated || b.created != 1 {
			t.Errorf("create = %d, created %d", rec.Code, b.created)
		}
		if !strings.Contains(rec.Body.String(), `"size":42`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("create failure", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, &stubBackups{createErr: errors.New("disk full")}, nil))
		rec, resp := serve(t, router, http.MethodPost, "/api/v1/backups")
		if rec.Code != http.StatusInternalServerError || resp.Error == nil || resp.Error.Code != "BACKUP_ERROR" {
			t.Errorf("create = %d %+v", rec.Code, resp.Error)
		}
		if strings.Contains(rec.Body.String(), "disk full") {
			t.Error("internal error text must not leak into the response")
		}
	})
}

type stubESI struct {
	status *models.ESIServerStatus
	err    error
}

func (s *stubESI) ServerStatus(ctx context.Context) (*models.ESIServerStatus, error) {
	return s.status, s.err
}

func TestESIServerStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		esi      ESIStatus
		wantCode int
		wantBody string
	}{
		{"not wired", nil, http.StatusNotFound, "ESI_DISABLED"},
		{"up", &stubESI{status: &models.ESIServerStatus{Players: 23000, ServerVersion: "2345678"}}, http.StatusOK, `"players":23000`},
		{"unavailable", &stubESI{err: errors.New("esi: status 503")}, http.StatusBadGateway, "ESI_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, nil, tt.esi))
			rec, _ := serve(t, router, http.MethodGet, "/api/v1/esi/status")
			if rec.Code != tt.wantCode || !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("GET /api/v1/esi/status = %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec, _ := serve(t, NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, nil, nil)), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d", rec.Code)
	}
}

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, nil, nil))
	live := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/health/live", "200")
	unmatched := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeLive := testutil.ToFloat64(live)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	serve(t, router, http.MethodGet, "/api/v1/health/live")
	serve(t, router, http.MethodGet, "/no-such-route")

	if got := testutil.ToFloat64(live); got != beforeLive+1 {
		t.Errorf("live counter = %v, want %v", got, beforeLive+1)
	}
	if got := testutil.ToFloat64(unmatched); got != beforeUnmatched+1 {
		t.Errorf("unmatched counter = %v, want %v", got, beforeUnmatched+1)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(&stubWorkers{}, &stubStore{}, nil, nil)).ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
