// Package shared provides small helpers for capability secrets and wiping
// sensitive buffers.
package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// CapabilitySize is the number of random bytes behind an event capability
// password.
const CapabilitySize = 24

// MakeRandHexString generates a random hexadecimal string from size random
// bytes, so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewCapabilityPassword returns a fresh shared secret for a symmetric
// envelope such as an event.
func NewCapabilityPassword() (string, error) {
	return MakeRandHexString(CapabilitySize)
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
