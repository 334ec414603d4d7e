// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/evetracker/internal/logging"
	"github.com/tomtom215/evetracker/internal/metrics"
)

// Maintainer is the store housekeeping the maintenance job runs.
type Maintainer interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	RunGC(ctx context.Context, discardRatio float64) (int, error)
	Size() (lsm, vlog int64)
}

// MaintenanceJob deletes expired sessions and compacts the value log.
type MaintenanceJob struct {
	store        Maintainer
	trigger      string
	discardRatio float64
	now          func() time.Time
}

// NewMaintenanceJob creates the storage maintenance job.
func NewMaintenanceJob(store Maintainer, trigger string, discardRatio float64) *MaintenanceJob {
	return &MaintenanceJob{store: store, trigger: trigger, discardRatio: discardRatio, now: time.Now}
}

func (j *MaintenanceJob) Name() string     { return JobDBMaintenance }
func (j *MaintenanceJob) Trigger() string  { return j.trigger }
func (j *MaintenanceJob) RunOnStart() bool { return false }

// Run performs both steps; a session cleanup failure does not prevent GC.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	logger := logging.Ctx(ctx)
	var errs []error

	deleted, err := j.store.DeleteExpiredSessions(ctx, j.now())
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired sessions: %w", err))
	} else {
		metrics.SessionsDeletedTotal.Add(float64(deleted))
		logger.Info().Int("deleted", deleted).Msg("Expired sessions deleted")
	}

	rewrites, err := j.store.RunGC(ctx, j.discardRatio)
	if err != nil {
		errs = append(errs, fmt.Errorf("value log gc: %w", err))
	} else {
		metrics.StoreGCRewritesTotal.Add(float64(rewrites))
		logger.Debug().Int("rewrites", rewrites).Msg("Value log GC finished")
	}

	lsm, vlog := j.store.Size()
	metrics.StoreSizeBytes.WithLabelValues("lsm").Set(float64(lsm))
	metrics.StoreSizeBytes.WithLabelValues("vlog").Set(float64(vlog))
	logger.Info().Int64("lsm_bytes", lsm).Int64("vlog_bytes", vlog).Msg("Store size")

	return errors.Join(errs...)
}
