// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package esi is the client for the EVE Swagger Interface (ESI).

Authenticated calls go through Client.Request, which resolves the
character's stored credential before every call. An access token whose
expiry has passed is renewed through the SSO renewer first, and the new
credential is persisted before the call proceeds.

Request Pipeline:

 1. Credential resolution (authenticated calls only)
 2. Process-wide token bucket (golang.org/x/time/rate)
 3. Circuit breaker (sony/gobreaker/v2)
 4. HTTP request with datasource query parameter and User-Agent
 5. Retry of 420 (error limited) and 429 (rate limited) with exponential
    backoff, honouring Retry-After and X-Esi-Error-Limit-Reset

Error Types:

  - *sso.CredentialExpiredError: the renewal credential was rejected. The
    character must log in again; never retried automatically.
  - *RemoteAPIError: any other transport or remote failure, including a
    failed renewal exchange and an open circuit breaker.

Client 4xx responses (other than 420/429) and credential errors do not
count as circuit breaker failures.

Typed helpers cover the endpoints the sync engine uses: wallet balance,
wallet journal, assets (all pages via X-Pages), skills, standings, and the
public character, corporation and server status endpoints.
*/
package esi
