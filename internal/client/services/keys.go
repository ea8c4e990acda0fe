package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/client/repositories/cache"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// keyDirectory resolves usernames to the public keys the relay registered
// for them. Keys are cached; an unreachable relay falls back to the cache.
type keyDirectory struct {
	client client.Client
	cache  cache.Repository
}

func (d keyDirectory) lookup(ctx context.Context, username string) (string, error) {
	if err := validate.Username(username); err != nil {
		return "", err
	}
	usernameHashed := cryptox.DeriveUsernameID(username)
	key := cache.PublicKeyKey(usernameHashed)

	pub, err := d.client.PublicKey(ctx, usernameHashed)
	if err == nil {
		_ = d.cache.Set(ctx, key, []byte(pub))
		return pub, nil
	}
	if errors.Is(err, client.ErrUnavailable) {
		if cached, cerr := d.cache.Get(ctx, key); cerr == nil && cached != nil {
			return string(cached), nil
		}
	}
	return "", err
}
