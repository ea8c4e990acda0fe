package events

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

func (r *PostgresRepository) Create(ctx context.Context, ev *models.Event) error {
	query :=
		`INSERT INTO events (id, password_hashed, owner_username_hashed, event_encrypted_signed)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id, password_hashed) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, ev.ID, ev.PasswordHashed, ev.OwnerUsernameHashed, ev.EventEncryptedSigned)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, passwordHashed string) (*models.Event, error) {
	query :=
		`SELECT id, password_hashed, owner_username_hashed, event_encrypted_signed FROM events
		 WHERE id = $1 AND password_hashed = $2`

	ev := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id, passwordHashed).
		Scan(&ev.ID, &ev.PasswordHashed, &ev.OwnerUsernameHashed, &ev.EventEncryptedSigned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ev, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id, passwordHashed, eventEncryptedSigned string) error {
	query :=
		`UPDATE events SET event_encrypted_signed = $3
		 WHERE id = $1 AND password_hashed = $2`

	return expectRows(r.db.ExecContext(ctx, query, id, passwordHashed, eventEncryptedSigned))
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerUsernameHashed string) error {
	query := `DELETE FROM events WHERE id = $1 AND owner_username_hashed = $2`

	return expectRows(r.db.ExecContext(ctx, query, id, ownerUsernameHashed))
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerUsernameHashed string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE owner_username_hashed = $1`, ownerUsernameHashed); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func expectRows(res sql.Result, err error) error {
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
