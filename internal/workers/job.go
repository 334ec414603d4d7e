// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
	"github.com/tomtom215/evetracker/internal/store"
)

// Job names.
const (
	JobDataRefresh   = "data_refresh"
	JobTokenRefresh  = "token_refresh"
	JobDBMaintenance = "db_maintenance"
	JobBackup        = "backup"
)

// Job is a periodic background job.
type Job interface {
	Name() string
	Trigger() string  // Scheduler expression
	RunOnStart() bool // Fire once when the manager starts
	Run(ctx context.Context) error
}

// batchTally counts the characters a run processed and how many failed.
// Manager.run attaches one to the run context and copies it into RunStatus.
type batchTally struct {
	total  atomic.Int64
	failed atomic.Int64
}

type batchTallyKey struct{}

func withBatchTally(ctx context.Context) (context.Context, *batchTally) {
	t := &batchTally{}
	return context.WithValue(ctx, batchTallyKey{}, t), t
}

func batchTallyFrom(ctx context.Context) *batchTally {
	t, _ := ctx.Value(batchTallyKey{}).(*batchTally)
	return t
}

// runBatch calls fn for each id in order, pausing delay between ids. A
// failing id is logged, counted and skipped; the batch still completes
// without error. Cancellation of ctx and a storage failure end the batch
// early with an error.
func runBatch(ctx context.Context, job string, ids []int64, delay time.Duration, fn func(ctx context.Context, id int64) error) error {
	logger := logging.Ctx(ctx)
	logger.Info().Int("characters", len(ids)).Msg("Batch started")

	tally := batchTallyFrom(ctx)
	failed := 0
	for i, id := range ids {
		if i > 0 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s: batch interrupted after %d of %d characters: %w", job, i, len(ids), err)
			}
		}

		err := fn(ctx, id)
		metrics.RecordBatchEntity(job, err)
		if tally != nil {
			tally.total.Add(1)
		}
		if err == nil {
			logger.Info().Int64("character_id", id).Msg("Character done")
			continue
		}

		failed++
		if tally != nil {
			tally.failed.Add(1)
		}
		if store.IsStorageFailure(err) {
			return fmt.Errorf("%s: storage failure at character %d (%d of %d), batch aborted: %w", job, id, i+1, len(ids), err)
		}
		logger.Warn().Err(err).Int64("character_id", id).Msg("Character failed")
	}

	logger.Info().Int("characters", len(ids)).Int("failed", failed).Msg("Batch finished")
	return nil
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
