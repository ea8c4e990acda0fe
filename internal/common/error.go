// Package common defines shared constants and sentinel errors used across
// client and server layers of GophAgenda. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Trust-layer errors.
	ErrMalformedInput   = errors.New("malformed input")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrDecryption       = errors.New("decryption failed")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrKeyMismatch      = errors.New("public and private key mismatch")
	ErrExpired          = errors.New("token expired")
	ErrKeyGeneration    = errors.New("key generation failed")
	ErrSelfInvitation   = errors.New("cannot invite yourself")

	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrRateLimited    = errors.New("rate limited")
)

// IsAuthFailure reports whether err should send the caller back to the
// unauthenticated entry point.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrorUnauthorized) ||
		errors.Is(err, ErrorNotFound)
}
