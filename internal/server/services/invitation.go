package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

type InvitationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewInvitationService(db *sql.DB, m repomanager.RepositoryManager) *InvitationService {
	return &InvitationService{db: db, repomanager: m}
}

// Send stores a request from sender to receiver. The receiver must exist.
func (s *InvitationService) Send(ctx context.Context, senderHashed, receiverHashed, envelope string) error {
	if err := firstError(validate.UsernameHashed(receiverHashed), validate.Message(envelope)); err != nil {
		return err
	}
	if senderHashed == receiverHashed {
		return common.ErrSelfInvitation
	}
	if _, err := s.repomanager.Accounts(s.db).PublicKeyArmored(ctx, receiverHashed); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	return s.repomanager.Invitations(s.db).Create(ctx, &models.Invitation{
		SenderUsernameHashed:      senderHashed,
		ReceiverUsernameHashed:    receiverHashed,
		InvitationEncryptedSigned: envelope,
	})
}

func (s *InvitationService) Requests(ctx context.Context, receiverHashed string) ([]*models.Invitation, error) {
	return s.repomanager.Invitations(s.db).Requests(ctx, receiverHashed)
}

func (s *InvitationService) Responses(ctx context.Context, senderHashed string) ([]*models.Invitation, error) {
	return s.repomanager.Invitations(s.db).Responses(ctx, senderHashed)
}

// Respond replaces the pending request from sender with the receiver's
// response envelope.
func (s *InvitationService) Respond(ctx context.Context, receiverHashed, senderHashed, envelope string) error {
	if err := firstError(validate.UsernameHashed(senderHashed), validate.Message(envelope)); err != nil {
		return err
	}
	return s.repomanager.Invitations(s.db).Respond(ctx, senderHashed, receiverHashed, envelope)
}

func (s *InvitationService) Delete(ctx context.Context, usernameHashed, otherHashed string) error {
	if err := validate.UsernameHashed(otherHashed); err != nil {
		return err
	}
	return s.repomanager.Invitations(s.db).Delete(ctx, usernameHashed, otherHashed)
}
