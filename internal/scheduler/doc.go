// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package scheduler registers named jobs against time-based triggers.

It wraps robfig/cron/v3 running in UTC. Trigger expressions:

  - "HH:MM": daily at that UTC time of day, e.g. "03:00" or "4:30"
  - "every Nm": fixed interval; the unit may be s, m or h ("every 30m")
  - "@every <duration>": fixed interval in Go duration syntax
  - any standard 5-field cron expression or descriptor ("@daily", "0 6 * * 1")

Malformed expressions are rejected at registration with *SchedulingError.

There is at most one registration per job name: registering a name again
cancels the previous registration first. Callbacks are fire-and-forget;
each firing runs on its own goroutine and a panic is recovered and logged.
Jobs decide for themselves whether overlapping runs are allowed.
*/
package scheduler
