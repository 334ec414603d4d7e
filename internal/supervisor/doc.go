// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package supervisor runs the long-lived services of EVE Tracker under a
suture v4 supervisor tree.

	RootSupervisor ("evetracker")
	├── WorkersSupervisor ("workers-layer")
	│   └── WorkersService (workers.Manager StartAll/StopAll)
	└── OpsSupervisor ("ops-layer")
	    └── HTTPServerService (/metrics, health, status), if enabled

A crash of the ops listener is restarted without touching the scheduled
jobs, and the reverse.

Shutdown is driven by cancelling the context passed to Serve. Each layer
waits up to TreeConfig.ShutdownTimeout for its services to return. The
workers service returns only after the workers have drained, so the timeout
must exceed the workers' drain timeout; config.Validate enforces this.

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog pipeline (see logging.NewSlogLogger).
*/
package supervisor
