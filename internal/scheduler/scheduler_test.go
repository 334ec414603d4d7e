// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseTrigger_Next(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		expr string
		want time.Time
	}{
		{"03:00", time.Date(2026, 5, 2, 3, 0, 0, 0, time.UTC)},
		{"4:30", time.Date(2026, 5, 2, 4, 30, 0, 0, time.UTC)},
		{"23:59", time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)},
		{"every 30m", from.Add(30 * time.Minute)},
		{"every 15m", from.Add(15 * time.Minute)},
		{"every 2h", from.Add(2 * time.Hour)},
		{"@every 1h30m", from.Add(90 * time.Minute)},
		{"0 */6 * * *", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"@daily", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			schedule, err := ParseTrigger(tt.expr)
			if err != nil {
				t.Fatalf("ParseTrigger(%q) error = %v", tt.expr, err)
			}
			if got := schedule.Next(from); !got.Equal(tt.want) {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTrigger_Invalid(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "   ", "25:00", "3:5", "3am", "every 0m", "every m", "every 5d", "* * *", "@sometimes"} {
		t.Run(expr, func(t *testing.T) {
			t.Parallel()
			_, err := ParseTrigger(expr)
			var se *SchedulingError
			if !errors.As(err, &se) {
				t.Fatalf("ParseTrigger(%q) = %v, want *SchedulingError", expr, err)
			}
		})
	}
}

func TestRegister_ReplacesPrevious(t *testing.T) {
	t.Parallel()

	s := New()
	first, err := s.Register("data_refresh", "every 30m", func() {})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Register("data_refresh", "every 45m", func() {})
	if err != nil {
		t.Fatal(err)
	}

	descs := s.Descriptors()
	if len(descs) != 1 || descs[0].Expr != "every 45m" {
		t.Fatalf("Descriptors() = %+v, want single every 45m", descs)
	}
	if s.Cancel(first) {
		t.Error("cancelling a replaced handle must be a no-op")
	}
	if len(s.Descriptors()) != 1 {
		t.Error("stale cancel removed the live registration")
	}
	if !s.Cancel(second) {
		t.Error("Cancel(second) = false, want true")
	}
	if s.Cancel(second) {
		t.Error("second Cancel should be a no-op")
	}
	if len(s.Descriptors()) != 0 {
		t.Error("expected no registrations")
	}
}

func TestRegister_InvalidExpression(t *testing.T) {
	t.Parallel()

	s := New()
	if _, err := s.Register("backup", "02:00", func() {}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Register("backup", "26:00", func() {})
	var se *SchedulingError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchedulingError, got %v", err)
	}
	if se.Job != "backup" || se.Expr != "26:00" {
		t.Errorf("unexpected error fields: %+v", se)
	}
	if len(s.Descriptors()) != 0 {
		t.Error("previous registration should be cancelled before parsing")
	}
}

func TestDescriptors_SortedWithNext(t *testing.T) {
	t.Parallel()

	s := New()
	for _, name := range []string{"token_refresh", "backup", "maintenance"} {
		if _, err := s.Register(name, "@hourly", func() {}); err != nil {
			t.Fatal(err)
		}
	}
	s.Start()
	defer s.Stop()

	// Entries are scheduled asynchronously once the cron loop runs.
	deadline := time.Now().Add(2 * time.Second)
	var descs []JobDescriptor
	for time.Now().Before(deadline) {
		descs = s.Descriptors()
		if !descs[0].Next.IsZero() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	names := []string{descs[0].Name, descs[1].Name, descs[2].Name}
	if names[0] != "backup" || names[1] != "maintenance" || names[2] != "token_refresh" {
		t.Errorf("names = %v, want sorted", names)
	}
	for _, d := range descs {
		if d.Next.IsZero() {
			t.Errorf("%s: Next is zero after Start", d.Name)
		}
	}
}

func TestScheduler_FiresAndRecoversPanics(t *testing.T) {
	t.Parallel()

	s := New()
	var fired atomic.Int32
	if _, err := s.Register("panicky", "@every 1s", func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Register("ticker", "@every 1s", func() { fired.Add(1) }); err != nil {
		t.Fatal(err)
	}

	s.Start()
	deadline := time.Now().Add(5 * time.Second)
	for fired.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx := s.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not finish")
	}
	if fired.Load() < 2 {
		t.Errorf("ticker fired %d times, want at least 2", fired.Load())
	}

	after := fired.Load()
	time.Sleep(1500 * time.Millisecond)
	if fired.Load() != after {
		t.Error("callbacks fired after Stop")
	}
}
