// Package client contains client-side building blocks for GophAgenda.
//
// # Overview
//
// The package provides:
//  1. The Client interface: the relay's JSON API (registration, login,
//     cookie issuance, keys, metadata, events, invitations, export).
//  2. RelayClient, the net/http implementation. It keeps the __Host-auth
//     cookie value in memory, never follows redirects, re-signs an expired
//     token through a TokenRefresher and retries once, and maps status
//     codes back to the common sentinel errors.
//  3. Local cache bootstrap (InitDatabase, RunMigrations): an SQLite
//     database with embedded goose migrations.
//
// # Error Handling
//
// Status codes map to common.ErrMalformedInput (400), common.ErrorForbidden
// (403), common.ErrorNotFound (404), common.ErrorAlreadyExists (409),
// common.ErrRateLimited (429) and ErrUnavailable (5xx or transport errors).
// A redirect to the login entry point is common.ErrorUnauthorized.
package client
