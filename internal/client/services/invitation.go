package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/client/repositories/cache"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/dmitrijs2005/gophagenda/internal/invitation"
	"github.com/dmitrijs2005/gophagenda/internal/logging"
	"github.com/dmitrijs2005/gophagenda/internal/session"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

type InvitationService struct {
	client   client.Client
	sessions SessionProvider
	agendas  *AgendaService
	keys     keyDirectory
	logger   logging.Logger
}

func NewInvitationService(c client.Client, cacheRepo cache.Repository, sessions SessionProvider, agendas *AgendaService, logger logging.Logger) *InvitationService {
	return &InvitationService{
		client:   c,
		sessions: sessions,
		agendas:  agendas,
		keys:     keyDirectory{client: c, cache: cacheRepo},
		logger:   logger,
	}
}

// InviteContact introduces the user to username.
func (s *InvitationService) InviteContact(ctx context.Context, username string) error {
	sess, err := s.sessions.Session()
	if err != nil {
		return err
	}
	return s.send(ctx, sess, username, invitation.NewContact(sess.Username(), sess.PublicKeyArmored()))
}

// InviteToEvent shares the capability for event id with username and lists
// them as an attendee.
func (s *InvitationService) InviteToEvent(ctx context.Context, username, id string) error {
	sess, err := s.sessions.Session()
	if err != nil {
		return err
	}
	access, err := s.agendas.access(ctx, id)
	if err != nil {
		return err
	}
	ev, err := s.agendas.FetchEvent(ctx, access)
	if err != nil {
		return err
	}

	inv := invitation.NewEventInvite(sess.Username(), sess.PublicKeyArmored(), access)
	if err := s.send(ctx, sess, username, inv); err != nil {
		return err
	}

	if err := ev.AddAttendee(username); err != nil {
		return err
	}
	return s.agendas.storeEvent(ctx, ev, access)
}

func (s *InvitationService) send(ctx context.Context, sess *session.Session, username string, inv *documents.Invitation) error {
	if username == sess.Username() {
		return common.ErrSelfInvitation
	}
	pub, err := s.keys.lookup(ctx, username)
	if err != nil {
		return fmt.Errorf("receiver key: %w", err)
	}
	receiverHashed := cryptox.DeriveUsernameID(username)

	var env string
	err = sess.WithKey(func(key *crypto.Key) error {
		var cerr error
		env, cerr = invitation.Create(inv, sess.UsernameHashed(), receiverHashed, pub, key)
		return cerr
	})
	if err != nil {
		return err
	}
	if err := s.client.SendInvitation(ctx, receiverHashed, env); err != nil {
		return fmt.Errorf("send invitation: %w", err)
	}
	return nil
}

// Pending returns the requests addressed to the user that verified.
func (s *InvitationService) Pending(ctx context.Context) ([]documents.Invitation, error) {
	records, err := s.client.Requests(ctx)
	if err != nil {
		return nil, fmt.Errorf("requests: %w", err)
	}
	return s.open(ctx, records, func(r wire.Invitation) string { return r.SenderUsernameHashed })
}

// open decrypts records. An invitation is kept only when its username
// hashes to the peer the relay filed it under and its embedded key is the
// one the relay holds for that user.
func (s *InvitationService) open(ctx context.Context, records []wire.Invitation, peer func(wire.Invitation) string) ([]documents.Invitation, error) {
	sess, err := s.sessions.Session()
	if err != nil {
		return nil, err
	}

	peers := make(map[string]struct{}, len(records))
	envs := make([]string, 0, len(records))
	for _, r := range records {
		peers[peer(r)] = struct{}{}
		envs = append(envs, r.InvitationEncryptedSigned)
	}

	check := func(ctx context.Context, inv *documents.Invitation) error {
		if _, ok := peers[cryptox.DeriveUsernameID(inv.Username)]; !ok {
			return common.ErrSignatureInvalid
		}
		registered, err := s.keys.lookup(ctx, inv.Username)
		if err != nil {
			return err
		}
		want, err := cryptox.Fingerprint(registered)
		if err != nil {
			return err
		}
		got, err := cryptox.Fingerprint(inv.PublicKeyArmored)
		if err != nil || got != want {
			return common.ErrSignatureInvalid
		}
		return nil
	}

	var out []documents.Invitation
	err = sess.WithKey(func(key *crypto.Key) error {
		out = invitation.Receive(ctx, envs, key,
			invitation.WithSenderCheck(check),
			invitation.WithConcurrency(4),
			invitation.WithDropObserver(func(dropped int) {
				if dropped > 0 {
					s.logger.Warn(ctx, "dropped invitations", "count", dropped, "total", len(envs))
				}
			}),
		)
		return nil
	})
	return out, err
}

// Accept applies the pending request from username to the profile and
// answers it with a contact introduction. Event capabilities land in the
// first agenda.
func (s *InvitationService) Accept(ctx context.Context, username string) (*documents.Invitation, error) {
	sess, err := s.sessions.Session()
	if err != nil {
		return nil, err
	}
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	var req *documents.Invitation
	for i := range pending {
		if pending[i].Username == username {
			req = &pending[i]
			break
		}
	}
	if req == nil {
		return nil, fmt.Errorf("%w: no invitation from %s", common.ErrorNotFound, username)
	}

	_, err = s.agendas.update(ctx, func(md *documents.Metadata) error {
		if _, err := md.AddContact(req.Username); err != nil {
			return err
		}
		if req.Type == documents.InvitationEvent {
			return md.AddEventAccess(0, *req.EventAccess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := invitation.NewContact(sess.Username(), sess.PublicKeyArmored())
	var senderHashed, env string
	err = sess.WithKey(func(key *crypto.Key) error {
		var rerr error
		senderHashed, env, rerr = invitation.Respond(req, resp, sess.UsernameHashed(), key)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	if err := s.client.Respond(ctx, senderHashed, env); err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}
	return req, nil
}

// Decline deletes the request from username without answering.
func (s *InvitationService) Decline(ctx context.Context, username string) error {
	if _, err := s.sessions.Session(); err != nil {
		return err
	}
	if err := s.client.DeleteInvitation(ctx, cryptox.DeriveUsernameID(username)); err != nil {
		return fmt.Errorf("decline: %w", err)
	}
	return nil
}

// CollectResponses adds everyone who answered the user's requests to the
// contacts and deletes the consumed records.
func (s *InvitationService) CollectResponses(ctx context.Context) ([]documents.Invitation, error) {
	records, err := s.client.Responses(ctx)
	if err != nil {
		return nil, fmt.Errorf("responses: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	answered, err := s.open(ctx, records, func(r wire.Invitation) string { return r.ReceiverUsernameHashed })
	if err != nil {
		return nil, err
	}
	if len(answered) == 0 {
		return nil, nil
	}

	_, err = s.agendas.update(ctx, func(md *documents.Metadata) error {
		for _, inv := range answered {
			if _, err := md.AddContact(inv.Username); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, inv := range answered {
		if err := s.client.DeleteInvitation(ctx, cryptox.DeriveUsernameID(inv.Username)); err != nil && !errors.Is(err, common.ErrorNotFound) {
			errs = append(errs, err)
		}
	}
	return answered, errors.Join(errs...)
}
