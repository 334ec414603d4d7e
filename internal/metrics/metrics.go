// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "evetracker"

var (
	// ESI Client Metrics
	ESIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "esi_requests_total",
			Help:      "Total number of ESI requests by endpoint template and status",
		},
		[]string{"endpoint", "status"}, // status: HTTP code, or "error" for transport failures
	)

	ESIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "esi_request_duration_seconds",
			Help:      "Duration of ESI requests in seconds, including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	ESIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "esi_retries_total",
			Help:      "Total number of ESI requests retried after 420/429",
		},
		[]string{"endpoint"},
	)

	ESICacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "esi_cache_lookups_total",
			Help:      "Total number of public ESI cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	// Ops API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of ops API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Ops API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Current number of in-flight ops API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Credential Metrics
	TokenRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_renewals_total",
			Help:      "Total number of OAuth credential renewals by result",
		},
		[]string{"result"}, // success, expired, error
	)

	TokenRenewalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_renewal_duration_seconds",
			Help:      "Duration of successful credential renewals in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Sync Engine Metrics
	SyncFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_fetches_total",
			Help:      "Total number of per-character payload fetches by kind and result",
		},
		[]string{"kind", "result"}, // kind: wallet, assets, skills, standings, profile, corporation
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of a full character sync in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Worker Metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of background job runs by result",
		},
		[]string{"job", "result"}, // result: success, failure
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of background job runs in seconds",
			Buckets:   []float64{0.1, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"job"},
	)

	JobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run of each job",
		},
		[]string{"job"},
	)

	JobRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_running",
			Help:      "1 while a job run is in progress",
		},
		[]string{"job"},
	)

	JobSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_skipped_total",
			Help:      "Total number of triggers skipped because the previous run was still in progress",
		},
		[]string{"job"},
	)

	BatchEntitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_entities_total",
			Help:      "Total number of characters processed by batch jobs by result",
		},
		[]string{"job", "result"},
	)

	// Storage Metrics
	SessionsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_deleted_total",
			Help:      "Total number of expired sessions deleted by maintenance",
		},
	)

	StoreGCRewritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_gc_rewrites_total",
			Help:      "Total number of value log files rewritten by GC",
		},
	)

	StoreSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_size_bytes",
			Help:      "On-disk store size in bytes, sampled by maintenance (kind: lsm, vlog)",
		},
		[]string{"kind"},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Total number of backups by result",
		},
		[]string{"result"},
	)

	BackupOffloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_offloads_total",
			Help:      "Total number of offsite backup uploads by result",
		},
		[]string{"result"},
	)

	BackupSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_size_bytes",
			Help:      "Size of the most recent backup file in bytes",
		},
	)

	BackupsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_pruned_total",
			Help:      "Total number of backup files removed by retention",
		},
	)
)

// RecordESIRequest records one ESI call. status 0 means a transport failure.
func RecordESIRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ESIRequestsTotal.WithLabelValues(endpoint, label).Inc()
	ESIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordESICacheLookup records a public response cache lookup.
func RecordESICacheLookup(hit bool) {
	if hit {
		ESICacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	ESICacheLookupsTotal.WithLabelValues("miss").Inc()
}

// RecordAPIRequest records an ops API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSyncFetch records one payload fetch of a character sync.
func RecordSyncFetch(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SyncFetchesTotal.WithLabelValues(kind, result).Inc()
}

// RecordJobRun records a finished job run.
func RecordJobRun(job string, duration time.Duration, err error) {
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		JobRunsTotal.WithLabelValues(job, "failure").Inc()
		return
	}
	JobRunsTotal.WithLabelValues(job, "success").Inc()
	JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// RecordBatchEntity records the outcome for one character in a batch job.
func RecordBatchEntity(job string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BatchEntitiesTotal.WithLabelValues(job, result).Inc()
}

// RecordBackup records a backup attempt and, on success, its size.
func RecordBackup(size int64, err error) {
	if err != nil {
		BackupsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupsTotal.WithLabelValues("success").Inc()
	BackupSizeBytes.Set(float64(size))
}

// RecordBackupOffload records an offsite upload attempt.
func RecordBackupOffload(err error) {
	if err != nil {
		BackupOffloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupOffloadsTotal.WithLabelValues("success").Inc()
}
