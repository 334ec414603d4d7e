// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

/*
Package sso renews EVE SSO OAuth credentials.

Client performs the refresh-token grant against the SSO token endpoint.
Renewer wraps it with persistence: it loads a character, exchanges the
refresh token, and stores the new access token, the (possibly rotated)
refresh token, and the new expiry.

Concurrent Renew calls for the same character share one exchange
(golang.org/x/sync/singleflight). EVE SSO rotates refresh tokens, so two
parallel exchanges would leave one caller holding an already-invalidated
token.

Errors:

  - *CredentialExpiredError: the refresh token was rejected (revoked,
    expired, or the character was transferred). Re-authentication by the
    user is the only fix; callers must not retry.
  - *RenewalError: any other failure (network, 5xx, malformed body).
    Callers may retry on the next schedule.
*/
package sso
