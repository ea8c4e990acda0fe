// Package documents defines the plaintext documents that travel inside
// envelopes: the per-user Metadata profile, calendar Events and
// Invitations. Decoding is strict: unknown fields, trailing data and
// structurally invalid values are rejected with common.ErrMalformedInput,
// because a valid signature says nothing about shape.
package documents
