// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/evetracker/internal/config"
	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/scheduler"
)

// DefaultDrainTimeout bounds how long StopAll waits for in-progress runs
// before cancelling them.
const DefaultDrainTimeout = time.Minute

// Store is the persistence the built-in jobs need. *store.Store implements it.
type Store interface {
	ValidCredentialLister
	ExpiringLister
	Maintainer
}

// Dependencies are the collaborators of the built-in jobs.
type Dependencies struct {
	Store   Store
	Syncer  Syncer
	Renewer Renewer
	Backups Backupper // nil disables the backup job
}

// Config configures a Manager.
type Config struct {
	Workers        config.WorkersConfig
	Backup         config.BackupConfig
	GCDiscardRatio float64
}

// Manager owns the background jobs and their lifecycle.
type Manager struct {
	sched        *scheduler.Scheduler
	jobs         []*jobState
	allowOverlap bool
	drainTimeout time.Duration
	log          zerolog.Logger

	mu         sync.Mutex
	running    bool
	runCtx     context.Context
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
}

// NewManager creates a stopped Manager with the built-in jobs.
func NewManager(cfg Config, deps Dependencies) *Manager {
	w := cfg.Workers
	jobs := []Job{
		NewDataRefreshJob(deps.Store, deps.Syncer, w.DataRefreshTrigger(), w.RefreshDelay, w.RunOnStart),
		NewTokenRefreshJob(deps.Store, deps.Renewer, w.TokenRefreshTrigger(), w.TokenLookahead, w.TokenDelay, w.RunOnStart),
		NewMaintenanceJob(deps.Store, w.MaintenanceTime, cfg.GCDiscardRatio),
	}
	if cfg.Backup.Enabled && deps.Backups != nil {
		jobs = append(jobs, NewBackupJob(deps.Backups, cfg.Backup.Time))
	}
	return NewManagerWithJobs(scheduler.New(), w.AllowOverlap, w.DrainTimeout, jobs...)
}

// NewManagerWithJobs creates a stopped Manager running the given jobs.
func NewManagerWithJobs(sched *scheduler.Scheduler, allowOverlap bool, drainTimeout time.Duration, jobs ...Job) *Manager {
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}
	m := &Manager{
		sched:        sched,
		allowOverlap: allowOverlap,
		drainTimeout: drainTimeout,
		log:          logging.WithComponent("workers"),
	}
	for _, job := range jobs {
		m.jobs = append(m.jobs, newJobState(job))
	}
	return m
}

// StartAll registers every job and fires the run-on-start jobs. Calling it
// while running logs a warning and does nothing. A job whose registration
// fails is logged and left out; the others still start and the returned
// error lists the failures.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.log.Warn().Msg("Workers already running")
		return nil
	}

	// Runs outlive the caller's cancellation; StopAll drains them.
	m.runCtx, m.cancelRuns = context.WithCancel(context.WithoutCancel(ctx))

	var errs []error
	var onStart []*jobState
	for _, js := range m.jobs {
		handle, err := m.sched.Register(js.job.Name(), js.job.Trigger(), func() { m.fire(js) })
		if err != nil {
			m.log.Error().Err(err).Str("job", js.job.Name()).Msg("Failed to schedule job")
			js.registrationFailed(err)
			errs = append(errs, err)
			continue
		}
		js.handle = handle
		js.scheduled = true
		if js.job.RunOnStart() {
			onStart = append(onStart, js)
		}
	}

	m.sched.Start()
	m.running = true
	m.mu.Unlock()

	for _, js := range onStart {
		go m.fire(js)
	}

	m.log.Info().Int("jobs", len(m.jobs)-len(errs)).Int("failed", len(errs)).Msg("Workers started")
	return errors.Join(errs...)
}

// StopAll cancels every registration and waits for runs in progress to
// finish. Runs still going after the drain timeout are cancelled. Calling it
// while stopped logs a warning and does nothing.
func (m *Manager) StopAll() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.log.Warn().Msg("Workers not running")
		return
	}
	m.running = false
	for _, js := range m.jobs {
		if js.scheduled {
			m.sched.Cancel(js.handle)
			js.scheduled = false
		}
	}
	schedDone := m.sched.Stop()
	cancel := m.cancelRuns
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		<-schedDone.Done()
		close(done)
	}()

	timer := time.NewTimer(m.drainTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		m.log.Warn().Dur("timeout", m.drainTimeout).Msg("Runs still in progress, cancelling")
		cancel()
		<-done
	}
	cancel()

	m.log.Info().Msg("Workers stopped")
}

// Status returns the lifecycle state and the last-run status of every job.
func (m *Manager) Status() Status {
	m.mu.Lock()
	running := m.running
	scheduled := make(map[string]bool, len(m.jobs))
	for _, js := range m.jobs {
		scheduled[js.job.Name()] = js.scheduled
	}
	m.mu.Unlock()

	next := make(map[string]time.Time)
	for _, d := range m.sched.Descriptors() {
		next[d.Name] = d.Next
	}

	st := Status{Running: running}
	for _, js := range m.jobs {
		rs := js.snapshot()
		rs.Scheduled = scheduled[rs.Job]
		rs.NextRun = next[rs.Job]
		st.Jobs = append(st.Jobs, rs.Job)
		st.Runs = append(st.Runs, rs)
	}
	return st
}

// ErrUnknownJob is returned by RunOnce for a name no job has.
var ErrUnknownJob = errors.New("unknown job")

// RunOnce runs the named job synchronously, outside the schedule, and
// returns its error. The run is recorded in Status like a scheduled one.
// With the overlap guard on it fails if the job is already running.
func (m *Manager) RunOnce(ctx context.Context, name string) error {
	var js *jobState
	for _, j := range m.jobs {
		if j.job.Name() == name {
			js = j
			break
		}
	}
	if js == nil {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	if !m.allowOverlap {
		if !js.busy.CompareAndSwap(false, true) {
			return fmt.Errorf("job %s is already running", name)
		}
		defer js.busy.Store(false)
	}
	return m.run(ctx, js)
}

// fire runs js once unless the manager is stopped or, with the overlap
// guard on, the previous run is still going.
func (m *Manager) fire(js *jobState) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	ctx := m.runCtx
	m.mu.Unlock()
	defer m.wg.Done()

	name := js.job.Name()
	if !m.allowOverlap {
		if !js.busy.CompareAndSwap(false, true) {
			js.skip()
			metrics.JobSkippedTotal.WithLabelValues(name).Inc()
			m.log.Info().Str("job", name).Msg("Previous run still in progress, skipping trigger")
			return
		}
		defer js.busy.Store(false)
	}

	_ = m.run(ctx, js) // Recorded in the job status
}

func (m *Manager) run(ctx context.Context, js *jobState) error {
	name := js.job.Name()
	logger := logging.WithJob(name)
	ctx = logging.ContextWithLogger(logging.ContextWithNewCorrelationID(ctx), logger)

	ctx, tally := withBatchTally(ctx)

	start := time.Now()
	js.begin(start)
	metrics.JobRunning.WithLabelValues(name).Inc()
	logging.Ctx(ctx).Info().Msg("Job started")

	err := runSafely(ctx, js.job)

	dur := time.Since(start)
	metrics.JobRunning.WithLabelValues(name).Dec()
	metrics.RecordJobRun(name, dur, err)
	total, failed := tally.total.Load(), tally.failed.Load()
	js.finish(time.Now(), dur, err, total, failed)

	switch {
	case err != nil:
		logging.Ctx(ctx).Error().Err(err).Dur("duration", dur).Msg("Job failed")
	case failed > 0:
		logging.Ctx(ctx).Warn().Int64("characters", total).Int64("failed", failed).Dur("duration", dur).Msg("Job finished with character failures")
	default:
		logging.Ctx(ctx).Info().Dur("duration", dur).Msg("Job finished")
	}
	return err
}

// runSafely converts a panic in a job into an error so the job stays
// scheduled and its status records the failure.
func runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Job panicked")
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}
