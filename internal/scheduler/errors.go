// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package scheduler

import "fmt"

// SchedulingError reports a trigger expression that could not be parsed.
type SchedulingError struct {
	Job  string
	Expr string
	Err  error
}

func (e *SchedulingError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("invalid trigger %q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("job %s: invalid trigger %q: %v", e.Job, e.Expr, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}
