// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package services

import (
	"context"

	"github.com/tomtom215/evetracker/internal/logging"
)

// WorkerLifecycle matches *workers.Manager.
type WorkerLifecycle interface {
	StartAll(ctx context.Context) error
	StopAll()
}

// WorkersService runs the background workers as a supervised service.
//
// A StartAll error means some jobs could not be scheduled while the rest
// are running. It is logged and the service keeps serving.
type WorkersService struct {
	manager WorkerLifecycle
	name    string
}

// NewWorkersService wraps manager.
func NewWorkersService(manager WorkerLifecycle) *WorkersService {
	return &WorkersService{manager: manager, name: "workers"}
}

// Serve implements suture.Service: StartAll, wait for cancellation, then
// StopAll, which returns once in-progress runs have drained.
func (s *WorkersService) Serve(ctx context.Context) error {
	if err := s.manager.StartAll(ctx); err != nil {
		logging.Error().Err(err).Str("service", s.name).Msg("Some jobs could not be scheduled")
	}

	<-ctx.Done()

	s.manager.StopAll()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *WorkersService) String() string {
	return s.name
}
