// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package api provides the operations HTTP surface of the background sync
service.

It is not the user-facing web application; it exposes what an operator or a
container orchestrator needs:

	GET  /metrics               Prometheus metrics
	GET  /api/v1/health/live    liveness, 200 while the process runs
	GET  /api/v1/health/ready   readiness, 503 if the store is unreachable
	                            or the workers are stopped
	GET  /api/v1/workers        Manager.Status: per-job last run and next run
	GET  /api/v1/backups        backup files, newest first
	POST /api/v1/backups        take a backup now
	GET  /api/v1/esi/status     ESI server status (players, version, VIP)

Responses use models.APIResponse. Every request gets an X-Request-ID that
is also attached to the request's log context as the correlation ID.
Request counts and latencies are labelled by chi route pattern, so path
parameters never become label values; requests matching no route are
counted as "unmatched".
*/
package api
