// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/evetracker/internal/scheduler"
)

// RunStatus is the last-run state of one job.
type RunStatus struct {
	Job          string        `json:"job"`
	Trigger      string        `json:"trigger"`
	Scheduled    bool          `json:"scheduled"`
	Running      bool          `json:"running"`
	NextRun      time.Time     `json:"next_run"`
	LastStart    time.Time     `json:"last_start"`
	LastFinish   time.Time     `json:"last_finish"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"` // Empty if the last run succeeded
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	Skipped      int64         `json:"skipped"` // Triggers dropped by the overlap guard

	// Batch jobs only: characters processed by the last run and how many of
	// them failed. Character failures do not make the run fail.
	LastCharacters        int64 `json:"last_characters"`
	LastCharacterFailures int64 `json:"last_character_failures"`
}

// Status is the manager-wide state returned by Manager.Status.
type Status struct {
	Running bool        `json:"running"`
	Jobs    []string    `json:"jobs"`
	Runs    []RunStatus `json:"runs"`
}

// jobState tracks one job inside a Manager.
type jobState struct {
	job    Job
	busy   atomic.Bool  // Overlap guard
	active atomic.Int32 // Runs in progress

	// Guarded by Manager.mu.
	handle    scheduler.Handle
	scheduled bool

	mu     sync.Mutex
	status RunStatus
}

func newJobState(job Job) *jobState {
	return &jobState{job: job, status: RunStatus{Job: job.Name(), Trigger: job.Trigger()}}
}

func (js *jobState) begin(start time.Time) {
	js.active.Add(1)
	js.mu.Lock()
	js.status.LastStart = start
	js.mu.Unlock()
}

func (js *jobState) finish(end time.Time, dur time.Duration, err error, characters, characterFailures int64) {
	js.active.Add(-1)
	js.mu.Lock()
	defer js.mu.Unlock()
	js.status.LastFinish = end
	js.status.LastDuration = dur
	js.status.LastCharacters = characters
	js.status.LastCharacterFailures = characterFailures
	js.status.Runs++
	js.status.LastError = ""
	if err != nil {
		js.status.Failures++
		js.status.LastError = err.Error()
	}
}

func (js *jobState) skip() {
	js.mu.Lock()
	js.status.Skipped++
	js.mu.Unlock()
}

func (js *jobState) registrationFailed(err error) {
	js.mu.Lock()
	js.status.LastError = err.Error()
	js.mu.Unlock()
}

func (js *jobState) snapshot() RunStatus {
	js.mu.Lock()
	s := js.status
	js.mu.Unlock()
	s.Running = js.active.Load() > 0
	return s
}
