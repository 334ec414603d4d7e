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

	"github.com/tomtom215/evetracker/internal/backup"
)

// Backupper creates, copies and prunes backups. *backup.Manager implements
// it.
type Backupper interface {
	CreateBackup(ctx context.Context) (*backup.Result, error)
	Offload(ctx context.Context, res *backup.Result) error
	ApplyRetention(ctx context.Context, now time.Time) (int, error)
}

// BackupJob writes a dump, copies it offsite and then applies retention.
type BackupJob struct {
	backups Backupper
	trigger string
	now     func() time.Time
}

// NewBackupJob creates the backup job.
func NewBackupJob(backups Backupper, trigger string) *BackupJob {
	return &BackupJob{backups: backups, trigger: trigger, now: time.Now}
}

func (j *BackupJob) Name() string     { return JobBackup }
func (j *BackupJob) Trigger() string  { return j.trigger }
func (j *BackupJob) RunOnStart() bool { return false }

// Run attempts retention even if the dump fails. The offsite copy is only
// attempted for a dump that was written.
func (j *BackupJob) Run(ctx context.Context) error {
	var errs []error
	res, err := j.backups.CreateBackup(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("create backup: %w", err))
	} else if err := j.backups.Offload(ctx, res); err != nil {
		errs = append(errs, err)
	}
	if _, err := j.backups.ApplyRetention(ctx, j.now()); err != nil {
		errs = append(errs, fmt.Errorf("apply retention: %w", err))
	}
	return errors.Join(errs...)
}
