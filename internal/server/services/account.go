// Package services contains the relay's business rules. Every value the
// relay stores is opaque to it; services only check shapes, ownership and
// capabilities before handing rows to the repositories.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/dbx"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophagenda/internal/token"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// AccountService handles registration, login, cookie issuance and the
// per-user rows.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       token.Clock
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, clock token.Clock) *AccountService {
	if clock == nil {
		clock = token.SystemClock{}
	}
	return &AccountService{db: db, repomanager: m, clock: clock}
}

// Register stores the four account rows atomically.
func (s *AccountService) Register(ctx context.Context, acc *models.Account) error {
	if err := firstError(
		validate.UsernameHashed(acc.UsernameHashed),
		validate.PasswordHashed(acc.PasswordHashed),
		validate.PrivateKeyArmored(acc.PrivateKeyEncryptedArmored),
		validate.PublicKeyArmored(acc.PublicKeyArmored),
		validate.Message(acc.MetadataEncryptedSigned),
	); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Accounts(tx).Create(ctx, acc)
	})
}

// Login checks the credentials and returns the encrypted private key. Both
// an unknown user and a wrong password yield ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, usernameHashed, passwordHashed string) (string, error) {
	if err := firstError(validate.UsernameHashed(usernameHashed), validate.PasswordHashed(passwordHashed)); err != nil {
		return "", err
	}

	repo := s.repomanager.Accounts(s.db)
	stored, err := repo.PasswordHashed(ctx, usernameHashed)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(passwordHashed)) != 1 {
		return "", common.ErrorUnauthorized
	}

	key, err := repo.PrivateKeyEncryptedArmored(ctx, usernameHashed)
	if err != nil {
		return "", common.ErrorInternal
	}
	return key, nil
}

// IssueCookie verifies a signed token payload against the stored public key
// and returns the cookie value plus the verified payload.
func (s *AccountService) IssueCookie(ctx context.Context, payloadSigned string) (string, token.Payload, error) {
	payload, err := token.NewVerifier(s, s.clock).VerifySigned(ctx, payloadSigned)
	if err != nil {
		return "", token.Payload{}, err
	}
	return token.Encode(payloadSigned), payload, nil
}

// Verifier returns a token verifier backed by the stored public keys.
func (s *AccountService) Verifier() *token.Verifier {
	return token.NewVerifier(s, s.clock)
}

func (s *AccountService) PrivateKeyEncryptedArmored(ctx context.Context, usernameHashed string) (string, error) {
	if err := validate.UsernameHashed(usernameHashed); err != nil {
		return "", err
	}
	return s.repomanager.Accounts(s.db).PrivateKeyEncryptedArmored(ctx, usernameHashed)
}

// PublicKeyArmored also serves as the token.PublicKeyLookup for cookie checks.
func (s *AccountService) PublicKeyArmored(ctx context.Context, usernameHashed string) (string, error) {
	if err := validate.UsernameHashed(usernameHashed); err != nil {
		return "", err
	}
	return s.repomanager.Accounts(s.db).PublicKeyArmored(ctx, usernameHashed)
}

func (s *AccountService) Metadata(ctx context.Context, usernameHashed string) (string, error) {
	return s.repomanager.Accounts(s.db).Metadata(ctx, usernameHashed)
}

func (s *AccountService) UpdateMetadata(ctx context.Context, usernameHashed, metadataEncryptedSigned string) error {
	if err := validate.Message(metadataEncryptedSigned); err != nil {
		return err
	}
	return s.repomanager.Accounts(s.db).UpdateMetadata(ctx, usernameHashed, metadataEncryptedSigned)
}

// Delete removes the account with its owned events and every invitation it
// takes part in, in one transaction.
func (s *AccountService) Delete(ctx context.Context, usernameHashed string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Events(tx).DeleteByOwner(ctx, usernameHashed); err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		if err := s.repomanager.Invitations(tx).DeleteByUser(ctx, usernameHashed); err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}
		return s.repomanager.Accounts(tx).Delete(ctx, usernameHashed)
	})
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
