// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package workers runs the periodic background jobs and owns their lifecycle.

Jobs:

  - data_refresh: every workers.data_refresh_interval minutes, syncs every
    character whose access credential has not expired, one at a time with
    workers.refresh_delay between characters
  - token_refresh: every workers.token_refresh_interval minutes (never more
    often than every 15 minutes), renews credentials expiring within
    workers.token_refresh_lookahead, one at a time with workers.token_delay
  - db_maintenance: daily at workers.maintenance_time (UTC), deletes expired
    sessions and runs value log GC
  - backup: daily at backup.time (UTC), writes a dump and applies retention

A failure for one character is logged and the batch continues; the run
still completes without error and RunStatus counts the failed characters
separately from failed runs. A storage failure, whether selecting the
characters or writing one of them, ends the run with that error. Either way
the job stays scheduled and the outcome is kept in its RunStatus.

Lifecycle:

Manager.StartAll registers every job with the scheduler and fires the
run-on-start jobs once. Manager.StopAll cancels the registrations and waits
for runs already in progress to finish before returning, so it is safe to
close the store afterwards. Both are idempotent: a second call logs a
warning and does nothing. Each Manager owns its own lifecycle state.

Unless workers.allow_overlap is set, a trigger that fires while the previous
run of the same job is still going is skipped and counted.
*/
package workers
