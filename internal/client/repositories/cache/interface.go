// Package cache stores ciphertext fetched from the relay (metadata, event
// envelopes, public keys) in the local SQLite database. Nothing in it is
// plaintext; the whole table is dropped on logout.
package cache

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Keys under which the client services cache relay values.
func MetadataKey(usernameHashed string) string { return "metadata:" + usernameHashed }
func EventKey(id string) string                 { return "event:" + id }
func PublicKeyKey(usernameHashed string) string { return "publickey:" + usernameHashed }
