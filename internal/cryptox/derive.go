// Package cryptox implements the client-side trust primitives of GophAgenda:
// identifier derivation from raw credentials, the per-user OpenPGP identity
// key lifecycle, and the envelope codec used for every document that leaves
// the client.
//
// Nothing in this package talks to the network or stores state. Every
// function is a pure transformation over its explicit inputs.
package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// UsernamePrefix domain-separates the username digest.
	UsernamePrefix = "SuperSecureUsernameIs"
	// PasswordPrefix domain-separates the password derivation input.
	PasswordPrefix = "SuperSecurePasswordIs"
	// PasswordIterations is part of the stored-value contract: changing it
	// invalidates every passwordHashed already held by the relay.
	PasswordIterations = 310000
	// DerivedKeyLen is the PBKDF2 output size in bytes (64 hex characters).
	DerivedKeyLen = 32
)

// pbkdf2Iterations is PasswordIterations outside of tests.
var pbkdf2Iterations = PasswordIterations

// DeriveUsernameID returns the stable account identifier for username:
// lowercase hex of SHA-256(UsernamePrefix + username).
func DeriveUsernameID(username string) string {
	sum := sha256.Sum256([]byte(UsernamePrefix + username))
	return hex.EncodeToString(sum[:])
}

// DerivePasswordID returns the authentication secret sent to the relay in
// place of the password: PBKDF2-HMAC-SHA256 over PasswordPrefix+password,
// salted with the cleartext username.
//
// The derivation is CPU bound, so it runs on its own goroutine and the call
// returns early with ctx.Err() if the context is cancelled first.
func DerivePasswordID(ctx context.Context, username, password string) (string, error) {
	out := make(chan string, 1)
	go func() {
		out <- derivePassword(username, password, pbkdf2Iterations)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-out:
		return id, nil
	}
}

func derivePassword(username, password string, iterations int) string {
	key := pbkdf2.Key([]byte(PasswordPrefix+password), []byte(username), iterations, DerivedKeyLen, sha256.New)
	return hex.EncodeToString(key)
}
