// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/evetracker/internal/validation"
)

var everyPattern = regexp.MustCompile(`^every\s+(\d+)\s*([smh])$`)

// ParseTrigger parses a trigger expression into a cron schedule.
func ParseTrigger(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, &SchedulingError{Expr: expr, Err: errors.New("empty expression")}
	}

	if validation.IsClockTime(expr) {
		hour, minute, err := validation.ParseClockTime(expr)
		if err != nil {
			return nil, &SchedulingError{Expr: expr, Err: err}
		}
		return parseStandard(expr, fmt.Sprintf("CRON_TZ=UTC %d %d * * *", minute, hour))
	}

	if m := everyPattern.FindStringSubmatch(strings.ToLower(expr)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return nil, &SchedulingError{Expr: expr, Err: errors.New("interval must be positive")}
		}
		unit := map[string]time.Duration{"s": time.Second, "m": time.Minute, "h": time.Hour}[m[2]]
		return cron.Every(time.Duration(n) * unit), nil
	}

	return parseStandard(expr, expr)
}

func parseStandard(expr, spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, &SchedulingError{Expr: expr, Err: err}
	}
	return schedule, nil
}
