// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/evetracker/internal/workers"
)

// setTestEnv configures an in-memory store and a temporary backup dir.
func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EVE_CLIENT_ID", "client-id")
	t.Setenv("EVE_CLIENT_SECRET", "client-secret")
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("DB_IN_MEMORY", "true")
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("LOG_LEVEL", "error")
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBackupCommands(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "backup", "create")
	if err != nil {
		t.Fatalf("backup create: %v", err)
	}
	path := strings.SplitN(out, "\t", 2)[0]
	if !strings.HasSuffix(path, ".bak.gz") {
		t.Fatalf("unexpected create output %q", out)
	}

	out, err = execute(t, "backup", "list")
	if err != nil {
		t.Fatalf("backup list: %v", err)
	}
	if !strings.Contains(out, filepath.Base(path)) {
		t.Errorf("list output missing %s:\n%s", filepath.Base(path), out)
	}

	if _, err := execute(t, "backup", "verify", path); err != nil {
		t.Errorf("backup verify: %v", err)
	}
	if _, err := execute(t, "backup", "restore", path); err != nil {
		t.Errorf("backup restore: %v", err)
	}
}

func TestBackupCommands_Disabled(t *testing.T) {
	setTestEnv(t)
	t.Setenv("BACKUP_ENABLED", "false")

	if _, err := execute(t, "backup", "list"); !errors.Is(err, errBackupsDisabled) {
		t.Errorf("expected errBackupsDisabled, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	setTestEnv(t)

	if _, err := execute(t, "run", workers.JobDBMaintenance); err != nil {
		t.Errorf("run %s: %v", workers.JobDBMaintenance, err)
	}
	if _, err := execute(t, "run", workers.JobDataRefresh); err != nil {
		t.Errorf("run %s with no characters: %v", workers.JobDataRefresh, err)
	}

	_, err := execute(t, "run", "nonexistent")
	if !errors.Is(err, workers.ErrUnknownJob) {
		t.Errorf("expected ErrUnknownJob, got %v", err)
	}
}

func TestMissingCredentials(t *testing.T) {
	setTestEnv(t)
	t.Setenv("EVE_CLIENT_SECRET", "")

	if _, err := execute(t, "run", workers.JobDBMaintenance); err == nil {
		t.Error("expected a configuration error")
	}
}

func TestServe_ReturnsOnCancel(t *testing.T) {
	setTestEnv(t)
	t.Setenv("OPS_ENABLED", "false")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, &options{}) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServe did not return after cancellation")
	}
}
