// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package metrics provides Prometheus metrics for EVE Tracker.

Collectors are registered with the default registry through promauto and
exposed at /metrics by the ops server.

# Available Metrics

ESI client:
  - evetracker_esi_requests_total{endpoint,status}
  - evetracker_esi_request_duration_seconds{endpoint}
  - evetracker_esi_retries_total{endpoint}
  - evetracker_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - evetracker_circuit_breaker_state_transitions_total{name,from_state,to_state}

Credentials:
  - evetracker_token_renewals_total{result} (success, expired, error)
  - evetracker_token_renewal_duration_seconds

Sync engine:
  - evetracker_sync_fetches_total{kind,result}
  - evetracker_sync_duration_seconds

Workers:
  - evetracker_job_runs_total{job,result}
  - evetracker_job_duration_seconds{job}
  - evetracker_job_last_success_timestamp_seconds{job}
  - evetracker_job_running{job}
  - evetracker_job_skipped_total{job}
  - evetracker_batch_entities_total{job,result}

Storage:
  - evetracker_sessions_deleted_total
  - evetracker_store_gc_rewrites_total
  - evetracker_backups_total{result}
  - evetracker_backup_size_bytes
  - evetracker_backups_pruned_total

# Label Cardinality

Endpoint labels use the route template ("/characters/{id}/wallet/"), never
the concrete path, so character IDs do not create new series.
*/
package metrics
