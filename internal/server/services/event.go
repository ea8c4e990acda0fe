package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// EventService relays event envelopes. Reads and updates need the
// (id, passwordHashed) capability; deletion is reserved to the owner.
type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager) *EventService {
	return &EventService{db: db, repomanager: m}
}

func (s *EventService) Get(ctx context.Context, id, passwordHashed string) (string, error) {
	if err := firstError(validate.EventID(id), validate.PasswordHashed(passwordHashed)); err != nil {
		return "", err
	}
	ev, err := s.repomanager.Events(s.db).Get(ctx, id, passwordHashed)
	if err != nil {
		return "", err
	}
	return ev.EventEncryptedSigned, nil
}

func (s *EventService) Create(ctx context.Context, ev *models.Event) error {
	if err := firstError(
		validate.EventID(ev.ID),
		validate.PasswordHashed(ev.PasswordHashed),
		validate.UsernameHashed(ev.OwnerUsernameHashed),
		validate.Message(ev.EventEncryptedSigned),
	); err != nil {
		return err
	}
	return s.repomanager.Events(s.db).Create(ctx, ev)
}

// Update replaces the envelope. An unknown capability is ErrorForbidden.
func (s *EventService) Update(ctx context.Context, id, passwordHashed, eventEncryptedSigned string) error {
	if err := firstError(
		validate.EventID(id),
		validate.PasswordHashed(passwordHashed),
		validate.Message(eventEncryptedSigned),
	); err != nil {
		return err
	}
	err := s.repomanager.Events(s.db).Update(ctx, id, passwordHashed, eventEncryptedSigned)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorForbidden
	}
	return err
}

func (s *EventService) Delete(ctx context.Context, id, ownerUsernameHashed string) error {
	if err := validate.EventID(id); err != nil {
		return err
	}
	return s.repomanager.Events(s.db).Delete(ctx, id, ownerUsernameHashed)
}
