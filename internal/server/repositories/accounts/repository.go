// Package accounts stores per-user rows: credentials, both halves of the
// identity keypair and the encrypted metadata document.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophagenda/internal/server/models"
)

type Repository interface {
	// Create inserts all four account rows. It must run inside a
	// transaction; ErrorAlreadyExists is returned for a taken username.
	Create(ctx context.Context, acc *models.Account) error
	PasswordHashed(ctx context.Context, usernameHashed string) (string, error)
	PrivateKeyEncryptedArmored(ctx context.Context, usernameHashed string) (string, error)
	PublicKeyArmored(ctx context.Context, usernameHashed string) (string, error)
	Metadata(ctx context.Context, usernameHashed string) (string, error)
	UpdateMetadata(ctx context.Context, usernameHashed, metadataEncryptedSigned string) error
	Delete(ctx context.Context, usernameHashed string) error
}
