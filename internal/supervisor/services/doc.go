// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package services provides suture.Service wrappers for EVE Tracker
components.

Each wrapper translates a component's own lifecycle into suture's
Serve(ctx) pattern:

  - WorkersService: workers.Manager StartAll/StopAll
  - HTTPServerService: *http.Server ListenAndServe/Shutdown

Wrappers implement fmt.Stringer so supervisor events name the service.
*/
package services
