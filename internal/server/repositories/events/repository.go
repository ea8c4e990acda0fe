// Package events stores event envelopes keyed by (id, passwordHashed).
package events

import (
	"context"

	"github.com/dmitrijs2005/gophagenda/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, ev *models.Event) error
	Get(ctx context.Context, id, passwordHashed string) (*models.Event, error)
	// Update replaces the envelope for any holder of the capability.
	Update(ctx context.Context, id, passwordHashed, eventEncryptedSigned string) error
	// Delete removes every copy of the event, only on behalf of its owner.
	Delete(ctx context.Context, id, ownerUsernameHashed string) error
	DeleteByOwner(ctx context.Context, ownerUsernameHashed string) error
}
