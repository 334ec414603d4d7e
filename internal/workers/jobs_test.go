// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/evetracker/internal/backup"
	"github.com/tomtom215/evetracker/internal/esi"
	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/sso"
	"github.com/tomtom215/evetracker/internal/store"
	entitysync "github.com/tomtom215/evetracker/internal/sync"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func saveCharacter(t *testing.T, s *store.Store, id int64, expiry time.Time) {
	t.Helper()
	if err := s.SaveCharacter(context.Background(), &models.Character{
		CharacterID:   id,
		Name:          "Pilot",
		CorporationID: 98000001,
		Credentials: models.Credentials{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    expiry,
		},
	}); err != nil {
		t.Fatal(err)
	}
}

// remote serves canned ESI payloads; walletErr fails the wallet of
// selected characters.
type remote struct {
	mu        sync.Mutex
	walletErr map[int64]error
	synced    []int64
}

func (r *remote) Wallet(ctx context.Context, id int64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, id)
	if err := r.walletErr[id]; err != nil {
		return 0, err
	}
	return 1000, nil
}

func (r *remote) WalletJournal(ctx context.Context, id int64) ([]models.JournalEntry, error) {
	return nil, nil
}

func (r *remote) Assets(ctx context.Context, id int64) ([]models.Asset, error) {
	return []models.Asset{{ItemID: id, TypeID: 587, Quantity: 1}}, nil
}

func (r *remote) Skills(ctx context.Context, id int64) (*models.SkillSnapshot, error) {
	return &models.SkillSnapshot{TotalSP: 1000}, nil
}

func (r *remote) Standings(ctx context.Context, id int64) ([]models.Standing, error) {
	return nil, nil
}

func (r *remote) CharacterInfo(ctx context.Context, id int64) (*models.ESICharacterInfo, error) {
	return &models.ESICharacterInfo{Name: "Pilot", CorporationID: 98000001}, nil
}

func (r *remote) CorporationInfo(ctx context.Context, id int64) (*models.ESICorporationInfo, error) {
	return &models.ESICorporationInfo{Name: "Corp", Ticker: "CORP"}, nil
}

type recordingRenewer struct {
	mu      sync.Mutex
	renewed []int64
	errs    map[int64]error
}

func (r *recordingRenewer) Renew(ctx context.Context, id int64) (*models.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renewed = append(r.renewed, id)
	if err := r.errs[id]; err != nil {
		return nil, err
	}
	return &models.Credentials{AccessToken: "new", ExpiresAt: time.Now().Add(20 * time.Minute)}, nil
}

// Characters whose credential expired 20 minutes ago are left out of both
// batch jobs; one expiring in 10 minutes is synced and renewed; one
// expiring in an hour is synced but not yet renewed.
func TestJobs_SelectionAroundExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(t)
	saveCharacter(t, s, 1, now.Add(-20*time.Minute))
	saveCharacter(t, s, 2, now.Add(10*time.Minute))
	saveCharacter(t, s, 3, now.Add(time.Hour))

	r := &remote{}
	data := NewDataRefreshJob(s, entitysync.NewEngine(r, s), "every 30m", 0, true)
	if err := data.Run(context.Background()); err != nil {
		t.Fatalf("data refresh: %v", err)
	}
	if !reflect.DeepEqual(r.synced, []int64{2, 3}) {
		t.Errorf("synced = %v, want [2 3]", r.synced)
	}

	renewer := &recordingRenewer{}
	token := NewTokenRefreshJob(s, renewer, "every 15m", 30*time.Minute, 0, true)
	if err := token.Run(context.Background()); err != nil {
		t.Fatalf("token refresh: %v", err)
	}
	if !reflect.DeepEqual(renewer.renewed, []int64{2}) {
		t.Errorf("renewed = %v, want [2]", renewer.renewed)
	}
}

func TestDataRefresh_FailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(t)
	for id := int64(1); id <= 3; id++ {
		saveCharacter(t, s, id, now.Add(time.Hour))
	}

	r := &remote{walletErr: map[int64]error{
		2: &esi.RemoteAPIError{StatusCode: http.StatusInternalServerError, Message: "boom", Path: "/characters/2/wallet/"},
	}}
	job := NewDataRefreshJob(s, entitysync.NewEngine(r, s), "every 30m", time.Millisecond, true)

	ctx, tally := withBatchTally(context.Background())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if tally.failed.Load() != 1 || tally.total.Load() != 3 {
		t.Errorf("tally = %d of %d failed, want 1 of 3", tally.failed.Load(), tally.total.Load())
	}
	if !reflect.DeepEqual(r.synced, []int64{1, 2, 3}) {
		t.Errorf("synced = %v, want [1 2 3]", r.synced)
	}

	for _, id := range []int64{1, 3} {
		c, _ := s.GetCharacter(ctx, id)
		if c.Wallet == nil || c.Assets == nil {
			t.Errorf("character %d not fully synced", id)
		}
	}
	c2, _ := s.GetCharacter(ctx, 2)
	if c2.Wallet != nil {
		t.Error("character 2 wallet must not be written")
	}
	if c2.Assets == nil || c2.Skills == nil {
		t.Error("character 2 remaining fetches should still succeed")
	}
}

func TestTokenRefresh_ContinuesPastRejectedCredential(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(t)
	for id := int64(1); id <= 3; id++ {
		saveCharacter(t, s, id, now.Add(5*time.Minute))
	}
	renewer := &recordingRenewer{errs: map[int64]error{1: &sso.CredentialExpiredError{CharacterID: 1, Reason: "invalid_grant"}}}
	job := NewTokenRefreshJob(s, renewer, "every 15m", 30*time.Minute, 0, true)

	ctx, tally := withBatchTally(context.Background())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if tally.failed.Load() != 1 {
		t.Errorf("failed = %d, want 1", tally.failed.Load())
	}
	if !reflect.DeepEqual(renewer.renewed, []int64{1, 2, 3}) {
		t.Errorf("renewed = %v", renewer.renewed)
	}
}

// stubSyncer fails the characters in errs with the given error.
type stubSyncer struct {
	errs   map[int64]error
	synced []int64
}

func (s *stubSyncer) SyncCharacter(ctx context.Context, id int64) *entitysync.Result {
	s.synced = append(s.synced, id)
	return &entitysync.Result{
		CharacterID: id,
		Fetches:     []entitysync.FetchResult{{Kind: entitysync.KindWallet, Err: s.errs[id]}},
	}
}

func TestDataRefresh_StorageFailureEndsRun(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(t)
	for id := int64(1); id <= 3; id++ {
		saveCharacter(t, s, id, now.Add(time.Hour))
	}
	syncer := &stubSyncer{errs: map[int64]error{
		2: fmt.Errorf("store wallet: %w", &store.StorageError{Op: "update", Key: "character:2", Err: errors.New("io error")}),
	}}

	ctx, tally := withBatchTally(context.Background())
	err := NewDataRefreshJob(s, syncer, "every 30m", 0, true).Run(ctx)
	var se *store.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if !reflect.DeepEqual(syncer.synced, []int64{1, 2}) {
		t.Errorf("synced = %v, want [1 2]", syncer.synced)
	}
	if tally.total.Load() != 2 || tally.failed.Load() != 1 {
		t.Errorf("tally = %d of %d failed, want 1 of 2", tally.failed.Load(), tally.total.Load())
	}
}

func TestTokenRefresh_StorageFailureEndsRun(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(t)
	for id := int64(1); id <= 3; id++ {
		saveCharacter(t, s, id, now.Add(5*time.Minute))
	}
	renewer := &recordingRenewer{errs: map[int64]error{1: fmt.Errorf("persist credentials for character 1: %w", store.ErrClosed)}}

	err := NewTokenRefreshJob(s, renewer, "every 15m", 30*time.Minute, 0, true).Run(context.Background())
	if !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !reflect.DeepEqual(renewer.renewed, []int64{1}) {
		t.Errorf("renewed = %v, want [1]", renewer.renewed)
	}
}

// tokenIssuer is an sso.TokenRefresher issuing tokens valid for lifetime.
type tokenIssuer struct {
	mu       sync.Mutex
	lifetime time.Duration
	calls    int
}

func (i *tokenIssuer) Refresh(ctx context.Context, refreshToken string) (*sso.Token, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	return &sso.Token{
		AccessToken:  fmt.Sprintf("access-%d", i.calls),
		RefreshToken: fmt.Sprintf("refresh-%d", i.calls),
		ExpiresIn:    int(i.lifetime.Seconds()),
		ExpiresAt:    time.Now().Add(i.lifetime),
	}, nil
}

func (i *tokenIssuer) exchanges() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// A credential expiring at T, swept at T-20m with a 30m lookahead, is
// renewed past T; the next sweep leaves it alone.
func TestTokenRefresh_RenewsPastExpiryOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	expiry := time.Now().Add(20 * time.Minute)
	saveCharacter(t, s, 1, expiry)

	issuer := &tokenIssuer{lifetime: time.Hour}
	job := NewTokenRefreshJob(s, sso.NewRenewer(issuer, s), "every 15m", 30*time.Minute, 0, true)

	for sweep := 1; sweep <= 2; sweep++ {
		if err := job.Run(ctx); err != nil {
			t.Fatalf("sweep %d: %v", sweep, err)
		}
	}
	if n := issuer.exchanges(); n != 1 {
		t.Errorf("exchanges = %d, want 1", n)
	}

	c, err := s.GetCharacter(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Credentials.ExpiresAt.After(expiry) {
		t.Errorf("expiry %v should be after the old expiry %v", c.Credentials.ExpiresAt, expiry)
	}
	if c.Credentials.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want the rotated token", c.Credentials.RefreshToken)
	}
}

func TestTokenRefresh_WarnsWhenLifetimeInsideLookahead(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), logging.NewTestLogger(&buf))
	s := newStore(t)
	saveCharacter(t, s, 1, time.Now().Add(10*time.Minute))

	issuer := &tokenIssuer{lifetime: 1199 * time.Second}
	job := NewTokenRefreshJob(s, sso.NewRenewer(issuer, s), "every 15m", 30*time.Minute, 0, true)
	if err := job.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "inside the lookahead window") {
		t.Errorf("expected a lookahead warning, got: %s", buf.String())
	}
}

type failingLister struct{}

func (failingLister) ListWithValidCredentials(ctx context.Context, now time.Time) ([]*models.Character, error) {
	return nil, &store.StorageError{Op: "list", Key: "character:", Err: errors.New("io error")}
}

func TestDataRefresh_SelectionFailureEndsRun(t *testing.T) {
	t.Parallel()

	job := NewDataRefreshJob(failingLister{}, nil, "every 30m", 0, true)
	err := job.Run(context.Background())
	var se *store.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestRunBatch_DelayBetweenEntities(t *testing.T) {
	t.Parallel()

	var times []time.Time
	start := time.Now()
	err := runBatch(context.Background(), "test", []int64{1, 2, 3}, 30*time.Millisecond, func(ctx context.Context, id int64) error {
		times = append(times, time.Now())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if times[0].Sub(start) > 20*time.Millisecond {
		t.Error("first entity should not be delayed")
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < 30*time.Millisecond {
			t.Errorf("gap %d = %v, want >= 30ms", i, gap)
		}
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := runBatch(ctx, "test", []int64{1, 2, 3}, time.Hour, func(ctx context.Context, id int64) error {
		calls++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMaintenanceJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	now := time.Now()
	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		if err := s.CreateSession(ctx, &models.Session{CharacterID: int64(i + 1), ExpiresAt: exp}); err != nil {
			t.Fatal(err)
		}
	}

	job := NewMaintenanceJob(s, "03:00", 0.5)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	n, err := s.CountSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("sessions left = %d, want 1", n)
	}
	if job.RunOnStart() {
		t.Error("maintenance must not run on start")
	}
}

type stubMaintainer struct {
	deleteErr error
	gcCalled  bool
}

func (m *stubMaintainer) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return 0, m.deleteErr
}

func (m *stubMaintainer) RunGC(ctx context.Context, ratio float64) (int, error) {
	m.gcCalled = true
	return 0, nil
}

func (m *stubMaintainer) Size() (lsm, vlog int64) { return 0, 0 }

func TestMaintenanceJob_PropagatesFailure(t *testing.T) {
	t.Parallel()

	m := &stubMaintainer{deleteErr: store.ErrClosed}
	err := NewMaintenanceJob(m, "03:00", 0.5).Run(context.Background())
	if !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if !m.gcCalled {
		t.Error("GC should still run after a session cleanup failure")
	}
}

type stubBackups struct {
	createErr, offloadErr, retentionErr error
	offloaded                           []*backup.Result
	retentionCalled                     bool
}

func (b *stubBackups) CreateBackup(ctx context.Context) (*backup.Result, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &backup.Result{Path: "x"}, nil
}

func (b *stubBackups) Offload(ctx context.Context, res *backup.Result) error {
	b.offloaded = append(b.offloaded, res)
	return b.offloadErr
}

func (b *stubBackups) ApplyRetention(ctx context.Context, now time.Time) (int, error) {
	b.retentionCalled = true
	return 0, b.retentionErr
}

func TestBackupJob_AttemptsBothSteps(t *testing.T) {
	t.Parallel()

	createErr := errors.New("disk full")
	retentionErr := io.ErrUnexpectedEOF
	b := &stubBackups{createErr: createErr, retentionErr: retentionErr}

	err := NewBackupJob(b, "02:00").Run(context.Background())
	if !b.retentionCalled {
		t.Error("retention must run even when the dump fails")
	}
	if !errors.Is(err, createErr) || !errors.Is(err, retentionErr) {
		t.Errorf("expected both errors joined, got %v", err)
	}
	if len(b.offloaded) != 0 {
		t.Error("nothing to offload when the dump fails")
	}
}

func TestBackupJob_OffloadFailureStillPrunes(t *testing.T) {
	t.Parallel()

	offloadErr := errors.New("bucket unreachable")
	b := &stubBackups{offloadErr: offloadErr}

	err := NewBackupJob(b, "02:00").Run(context.Background())
	if len(b.offloaded) != 1 || b.offloaded[0].Path != "x" {
		t.Errorf("offloaded = %v, want the created backup", b.offloaded)
	}
	if !b.retentionCalled {
		t.Error("retention must run after an offload failure")
	}
	if !errors.Is(err, offloadErr) {
		t.Errorf("expected offload error, got %v", err)
	}
}

func TestBackupJob_WithRealManager(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	m, err := backup.NewManager(backup.Config{Dir: t.TempDir(), RetentionDays: 7}, s)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewBackupJob(m, "02:00").Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	files, err := m.List()
	if err != nil || len(files) != 1 {
		t.Errorf("List() = %v, %v; want one backup", files, err)
	}
}
