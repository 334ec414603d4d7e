// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/evetracker/internal/logging"
)

// Handle identifies one registration. A handle becomes stale once its job
// name is registered again; cancelling a stale handle is a no-op.
type Handle struct {
	Name string
	id   cron.EntryID
}

// JobDescriptor describes a registered job.
type JobDescriptor struct {
	Name string
	Expr string
	Next time.Time // Zero until the scheduler is started
	Prev time.Time // Zero until the first firing
}

type registration struct {
	handle Handle
	expr   string
}

// Scheduler runs registered callbacks on their triggers.
type Scheduler struct {
	mu    sync.Mutex
	cron  *cron.Cron
	chain cron.Chain
	jobs  map[string]registration
	log   zerolog.Logger
}

// New creates a stopped Scheduler running in UTC.
func New() *Scheduler {
	cronLogger := logging.NewCronLogger()
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLogger)),
		chain: cron.NewChain(cron.Recover(cronLogger)),
		jobs:  make(map[string]registration),
		log:   logging.WithComponent("scheduler"),
	}
}

// Register schedules fn under name. Any previous registration of name is
// cancelled first, even if expr turns out to be invalid.
func (s *Scheduler) Register(name, expr string, fn func()) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[name]; ok {
		s.cron.Remove(prev.handle.id)
		delete(s.jobs, name)
		s.log.Debug().Str("job", name).Str("trigger", prev.expr).Msg("Replaced previous registration")
	}

	schedule, err := ParseTrigger(expr)
	if err != nil {
		var se *SchedulingError
		if errors.As(err, &se) {
			se.Job = name
		}
		return Handle{}, err
	}

	id := s.cron.Schedule(schedule, s.chain.Then(cron.FuncJob(fn)))
	h := Handle{Name: name, id: id}
	s.jobs[name] = registration{handle: h, expr: expr}

	s.log.Info().Str("job", name).Str("trigger", expr).Msg("Job registered")
	return h, nil
}

// Cancel removes the registration identified by h. It reports whether
// anything was removed.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.jobs[h.Name]
	if !ok || reg.handle != h {
		return false
	}
	s.cron.Remove(h.id)
	delete(s.jobs, h.Name)
	s.log.Info().Str("job", h.Name).Msg("Job cancelled")
	return true
}

// Descriptors lists registered jobs sorted by name.
func (s *Scheduler) Descriptors() []JobDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobDescriptor, 0, len(s.jobs))
	for name, reg := range s.jobs {
		entry := s.cron.Entry(reg.handle.id)
		out = append(out, JobDescriptor{Name: name, Expr: reg.expr, Next: entry.Next, Prev: entry.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins firing triggers. Starting a started scheduler is a no-op.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.Descriptors())).Msg("Scheduler started")
}

// Stop stops future firings. The returned context is done once callbacks
// already running have returned.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info().Msg("Scheduler stopped")
	return ctx
}
