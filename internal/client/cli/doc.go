// Package cli provides the interactive GophAgenda command-line client.
//
// It wires configuration, the local ciphertext cache, the relay client and
// the client services into a REPL. Everything the user types is encrypted
// and signed before it leaves the process; the relay only ever sees
// envelopes and hashed identifiers.
//
// Key features:
//   - Register / Login / Logout / account deletion and export
//   - Agendas and events, with events shared through capabilities
//   - Contact and event invitations
//   - Read-only fallback to the local cache while the relay is down
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
