// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package config

import (
	"fmt"

	"github.com/tomtom215/evetracker/internal/validation"
)

// Validate checks struct tags and then the cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateTokenWindow(); err != nil {
		return err
	}
	if err := c.validateDelays(); err != nil {
		return err
	}
	return c.validateShutdown()
}

// validateTokenWindow requires lookahead > sweep interval, so every
// credential is seen by at least one sweep before it expires.
func (c *Config) validateTokenWindow() error {
	interval := c.Workers.TokenRefreshInterval()
	if c.Workers.TokenLookahead <= interval {
		return fmt.Errorf("workers.token_refresh_lookahead (%s) must be greater than the token refresh interval (%s)",
			c.Workers.TokenLookahead, interval)
	}
	return nil
}

// validateDelays rejects per-entity delays that alone would exceed the
// job's own interval for a single entity.
func (c *Config) validateDelays() error {
	if c.Workers.TokenDelay >= c.Workers.TokenRefreshInterval() {
		return fmt.Errorf("workers.token_delay (%s) must be shorter than the token refresh interval", c.Workers.TokenDelay)
	}
	return nil
}

// validateShutdown requires the supervisor to wait longer than the workers
// drain, so the store is never closed under a run in progress.
func (c *Config) validateShutdown() error {
	if c.Supervisor.ShutdownTimeout <= c.Workers.DrainTimeout {
		return fmt.Errorf("supervisor.shutdown_timeout (%s) must be greater than workers.drain_timeout (%s)",
			c.Supervisor.ShutdownTimeout, c.Workers.DrainTimeout)
	}
	return nil
}
