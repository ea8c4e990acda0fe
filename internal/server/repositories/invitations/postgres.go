package invitations

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query :=
		`INSERT INTO invitations (sender_username_hashed, receiver_username_hashed, invitation_encrypted_signed, is_response)
		 VALUES ($1, $2, $3, FALSE)
		 ON CONFLICT (sender_username_hashed, receiver_username_hashed) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, inv.SenderUsernameHashed, inv.ReceiverUsernameHashed, inv.InvitationEncryptedSigned)
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

func (r *PostgresRepository) Requests(ctx context.Context, receiverUsernameHashed string) ([]*models.Invitation, error) {
	query :=
		`SELECT sender_username_hashed, receiver_username_hashed, invitation_encrypted_signed, is_response FROM invitations
		 WHERE receiver_username_hashed = $1 AND is_response = FALSE
		 ORDER BY sender_username_hashed`

	return r.list(ctx, query, receiverUsernameHashed)
}

func (r *PostgresRepository) Responses(ctx context.Context, senderUsernameHashed string) ([]*models.Invitation, error) {
	query :=
		`SELECT sender_username_hashed, receiver_username_hashed, invitation_encrypted_signed, is_response FROM invitations
		 WHERE sender_username_hashed = $1 AND is_response = TRUE
		 ORDER BY receiver_username_hashed`

	return r.list(ctx, query, senderUsernameHashed)
}

func (r *PostgresRepository) Respond(ctx context.Context, senderUsernameHashed, receiverUsernameHashed, invitationEncryptedSigned string) error {
	query :=
		`UPDATE invitations SET invitation_encrypted_signed = $3, is_response = TRUE
		 WHERE sender_username_hashed = $1 AND receiver_username_hashed = $2 AND is_response = FALSE`

	res, err := r.db.ExecContext(ctx, query, senderUsernameHashed, receiverUsernameHashed, invitationEncryptedSigned)
	return expectRows(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, usernameHashed, otherUsernameHashed string) error {
	query :=
		`DELETE FROM invitations
		 WHERE (sender_username_hashed = $1 AND receiver_username_hashed = $2)
		    OR (sender_username_hashed = $2 AND receiver_username_hashed = $1)`

	res, err := r.db.ExecContext(ctx, query, usernameHashed, otherUsernameHashed)
	return expectRows(res, err)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, usernameHashed string) error {
	query := `DELETE FROM invitations WHERE sender_username_hashed = $1 OR receiver_username_hashed = $1`

	if _, err := r.db.ExecContext(ctx, query, usernameHashed); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query, arg string) ([]*models.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Invitation, 0)
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.SenderUsernameHashed, &inv.ReceiverUsernameHashed, &inv.InvitationEncryptedSigned, &inv.IsResponse); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
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
