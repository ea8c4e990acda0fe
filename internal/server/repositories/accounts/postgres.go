package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/dbx"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (username_hashed, password_hashed)
		 VALUES ($1, $2)
		 ON CONFLICT (username_hashed) DO NOTHING`,
		acc.UsernameHashed, acc.PasswordHashed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorAlreadyExists
	}

	inserts := []struct {
		query string
		value string
	}{
		{`INSERT INTO private_keys (username_hashed, private_key_encrypted_armored) VALUES ($1, $2)`, acc.PrivateKeyEncryptedArmored},
		{`INSERT INTO public_keys (username_hashed, public_key_armored) VALUES ($1, $2)`, acc.PublicKeyArmored},
		{`INSERT INTO metadata (username_hashed, metadata_encrypted_signed) VALUES ($1, $2)`, acc.MetadataEncryptedSigned},
	}
	for _, in := range inserts {
		if _, err := r.db.ExecContext(ctx, in.query, acc.UsernameHashed, in.value); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) PasswordHashed(ctx context.Context, usernameHashed string) (string, error) {
	return r.selectOne(ctx, `SELECT password_hashed FROM credentials WHERE username_hashed = $1`, usernameHashed)
}

func (r *PostgresRepository) PrivateKeyEncryptedArmored(ctx context.Context, usernameHashed string) (string, error) {
	return r.selectOne(ctx, `SELECT private_key_encrypted_armored FROM private_keys WHERE username_hashed = $1`, usernameHashed)
}

func (r *PostgresRepository) PublicKeyArmored(ctx context.Context, usernameHashed string) (string, error) {
	return r.selectOne(ctx, `SELECT public_key_armored FROM public_keys WHERE username_hashed = $1`, usernameHashed)
}

func (r *PostgresRepository) Metadata(ctx context.Context, usernameHashed string) (string, error) {
	return r.selectOne(ctx, `SELECT metadata_encrypted_signed FROM metadata WHERE username_hashed = $1`, usernameHashed)
}

func (r *PostgresRepository) UpdateMetadata(ctx context.Context, usernameHashed, metadataEncryptedSigned string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE metadata SET metadata_encrypted_signed = $2 WHERE username_hashed = $1`,
		usernameHashed, metadataEncryptedSigned)
	return affectedOne(res, err)
}

// Delete removes the credentials row; keys, metadata, owned events and
// invitations go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, usernameHashed string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE username_hashed = $1`, usernameHashed)
	return affectedOne(res, err)
}

func (r *PostgresRepository) selectOne(ctx context.Context, query, usernameHashed string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, query, usernameHashed).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
