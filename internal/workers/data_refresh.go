// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/evetracker/internal/models"
	entitysync "github.com/tomtom215/evetracker/internal/sync"
)

// ValidCredentialLister selects characters whose access credential has not
// expired.
type ValidCredentialLister interface {
	ListWithValidCredentials(ctx context.Context, now time.Time) ([]*models.Character, error)
}

// Syncer syncs one character. *sync.Engine implements it.
type Syncer interface {
	SyncCharacter(ctx context.Context, characterID int64) *entitysync.Result
}

// DataRefreshJob syncs every character with a usable credential.
type DataRefreshJob struct {
	store      ValidCredentialLister
	syncer     Syncer
	trigger    string
	delay      time.Duration
	runOnStart bool
	now        func() time.Time
}

// NewDataRefreshJob creates the data refresh job.
func NewDataRefreshJob(store ValidCredentialLister, syncer Syncer, trigger string, delay time.Duration, runOnStart bool) *DataRefreshJob {
	return &DataRefreshJob{store: store, syncer: syncer, trigger: trigger, delay: delay, runOnStart: runOnStart, now: time.Now}
}

func (j *DataRefreshJob) Name() string     { return JobDataRefresh }
func (j *DataRefreshJob) Trigger() string  { return j.trigger }
func (j *DataRefreshJob) RunOnStart() bool { return j.runOnStart }

// Run syncs the selected characters in ascending id order.
func (j *DataRefreshJob) Run(ctx context.Context) error {
	characters, err := j.store.ListWithValidCredentials(ctx, j.now())
	if err != nil {
		return fmt.Errorf("select characters: %w", err)
	}

	return runBatch(ctx, JobDataRefresh, characterIDs(characters), j.delay, func(ctx context.Context, id int64) error {
		return j.syncer.SyncCharacter(ctx, id).Err()
	})
}

func characterIDs(characters []*models.Character) []int64 {
	ids := make([]int64, len(characters))
	for i, c := range characters {
		ids[i] = c.CharacterID
	}
	return ids
}
