// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/evetracker/internal/backup"
	"github.com/tomtom215/evetracker/internal/models"
	"github.com/tomtom215/evetracker/internal/workers"
)

// WorkerStatus reports the background workers' state.
type WorkerStatus interface {
	Status() workers.Status
}

// StoreChecker is used by the readiness probe.
type StoreChecker interface {
	CountCharacters(ctx context.Context) (int, error)
}

// BackupService lists and creates backups.
type BackupService interface {
	List() ([]backup.File, error)
	CreateBackup(ctx context.Context) (*backup.Result, error)
}

// ESIStatus reports the game server status as seen through ESI.
type ESIStatus interface {
	ServerStatus(ctx context.Context) (*models.ESIServerStatus, error)
}

// Handler serves the ops endpoints.
type Handler struct {
	workers   WorkerStatus
	store     StoreChecker
	backups   BackupService // nil when backups are disabled
	esi       ESIStatus     // nil when not wired
	startTime time.Time
}

// NewHandler creates a Handler. backups and esi may be nil.
func NewHandler(w WorkerStatus, store StoreChecker, backups BackupService, esi ESIStatus) *Handler {
	return &Handler{workers: w, store: store, backups: backups, esi: esi, startTime: time.Now()}
}

// HealthLive returns 200 while the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady returns 200 when the store answers and the workers are
// running, 503 otherwise. The body is the same in both cases.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := h.store.CountCharacters(ctx)
	health := models.HealthStatus{
		StoreReachable: err == nil,
		WorkersRunning: h.workers.Status().Running,
		Characters:     n,
		Uptime:         time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	health.Status = "healthy"
	if !health.StoreReachable || !health.WorkersRunning {
		status = http.StatusServiceUnavailable
		health.Status = "degraded"
	}
	respondSuccess(w, status, health, start)
}

// WorkersStatus returns Manager.Status.
func (h *Handler) WorkersStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.workers.Status(), time.Now())
}

// ListBackups returns the backup files, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.backups == nil {
		respondError(w, r, http.StatusNotFound, "BACKUP_DISABLED", "Backups are not enabled", nil)
		return
	}

	files, err := h.backups.List()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "BACKUP_ERROR", "Failed to list backups", err)
		return
	}
	if files == nil {
		files = []backup.File{}
	}
	respondSuccess(w, http.StatusOK, files, start)
}

// CreateBackup takes a backup synchronously and returns its result.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.backups == nil {
		respondError(w, r, http.StatusNotFound, "BACKUP_DISABLED", "Backups are not enabled", nil)
		return
	}

	res, err := h.backups.CreateBackup(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "BACKUP_ERROR", "Backup failed", err)
		return
	}
	respondSuccess(w, http.StatusCreated, res, start)
}

// ESIServerStatus proxies GET /status/ so an operator can tell an ESI outage
// or downtime apart from a fault in the workers. It is not part of readiness.
func (h *Handler) ESIServerStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.esi == nil {
		respondError(w, r, http.StatusNotFound, "ESI_DISABLED", "ESI status is not available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := h.esi.ServerStatus(ctx)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "ESI_UNAVAILABLE", "ESI status request failed", err)
		return
	}
	respondSuccess(w, http.StatusOK, status, start)
}
