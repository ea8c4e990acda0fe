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
	"github.com/dmitrijs2005/gophagenda/internal/session"
	"github.com/dmitrijs2005/gophagenda/internal/shared"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
	"golang.org/x/sync/errgroup"
)

// AgendaService manages the profile (agendas, contacts, capabilities) and
// the events it points to.
type AgendaService struct {
	client   client.Client
	cache    cache.Repository
	sessions SessionProvider
	keys     keyDirectory
}

func NewAgendaService(c client.Client, cacheRepo cache.Repository, sessions SessionProvider) *AgendaService {
	return &AgendaService{
		client:   c,
		cache:    cacheRepo,
		sessions: sessions,
		keys:     keyDirectory{client: c, cache: cacheRepo},
	}
}

// LoadMetadata fetches the profile, falling back to the cached envelope
// when the relay is unreachable. The envelope must be signed by the user's
// own key and name the logged-in user.
func (s *AgendaService) LoadMetadata(ctx context.Context) (*documents.Metadata, error) {
	sess, err := s.sessions.Session()
	if err != nil {
		return nil, err
	}
	cacheKey := cache.MetadataKey(sess.UsernameHashed())

	env, err := s.client.Metadata(ctx)
	fromRelay := err == nil
	if errors.Is(err, client.ErrUnavailable) {
		if cached, cerr := s.cache.Get(ctx, cacheKey); cerr == nil && cached != nil {
			env, err = string(cached), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	var text string
	err = sess.WithKey(func(key *crypto.Key) error {
		var oerr error
		text, oerr = cryptox.OpenAsymmetric(env, key, sess.PublicKeyArmored())
		return oerr
	})
	if err != nil {
		return nil, err
	}

	md, err := documents.DecodeMetadata(text)
	if err != nil {
		return nil, err
	}
	if md.Username != sess.Username() {
		return nil, fmt.Errorf("%w: metadata belongs to another user", common.ErrMalformedInput)
	}

	if fromRelay {
		_ = s.cache.Set(ctx, cacheKey, []byte(env))
	}
	return md, nil
}

// SaveMetadata seals md to the user's own key and uploads it.
func (s *AgendaService) SaveMetadata(ctx context.Context, md *documents.Metadata) error {
	sess, err := s.sessions.Session()
	if err != nil {
		return err
	}
	if err := md.Validate(); err != nil {
		return err
	}
	text, err := md.Encode()
	if err != nil {
		return err
	}

	var env string
	err = sess.WithKey(func(key *crypto.Key) error {
		var serr error
		env, serr = cryptox.SealAsymmetric(text, sess.PublicKeyArmored(), key)
		return serr
	})
	if err != nil {
		return err
	}

	if err := s.client.PutMetadata(ctx, env); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	_ = s.cache.Set(ctx, cache.MetadataKey(sess.UsernameHashed()), []byte(env))
	return nil
}

// update loads the profile, applies fn and saves the result.
func (s *AgendaService) update(ctx context.Context, fn func(md *documents.Metadata) error) (*documents.Metadata, error) {
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(md); err != nil {
		return nil, err
	}
	if err := s.SaveMetadata(ctx, md); err != nil {
		return nil, err
	}
	return md, nil
}

func (s *AgendaService) ListAgendas(ctx context.Context) ([]documents.Agenda, error) {
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return md.Agendas, nil
}

func (s *AgendaService) CreateAgenda(ctx context.Context, name string) (int, error) {
	var idx int
	_, err := s.update(ctx, func(md *documents.Metadata) error {
		var aerr error
		idx, aerr = md.AddAgenda(name)
		return aerr
	})
	return idx, err
}

func (s *AgendaService) Contacts(ctx context.Context) ([]string, error) {
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return md.Contacts, nil
}

// CreateEvent stores a new event under a fresh capability password and
// records the capability in agenda.
func (s *AgendaService) CreateEvent(ctx context.Context, agenda int, props documents.EventProperties) (*documents.Event, error) {
	sess, err := s.sessions.Session()
	if err != nil {
		return nil, err
	}
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if agenda < 0 || agenda >= len(md.Agendas) {
		return nil, fmt.Errorf("%w: no agenda %d", common.ErrorNotFound, agenda)
	}

	ev, err := documents.NewEvent(sess.Username(), props)
	if err != nil {
		return nil, err
	}
	password, err := shared.NewCapabilityPassword()
	if err != nil {
		return nil, err
	}
	access := documents.EventAccess{ID: ev.ID, Owner: sess.Username(), Password: password}

	req, err := s.sealEvent(ctx, sess, ev, access, sess.PublicKeyArmored())
	if err != nil {
		return nil, err
	}
	if err := s.client.CreateEvent(ctx, req); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	_ = s.cache.Set(ctx, cache.EventKey(ev.ID), []byte(req.EventEncryptedSigned))

	if err := md.AddEventAccess(agenda, access); err != nil {
		return nil, err
	}
	if err := s.SaveMetadata(ctx, md); err != nil {
		return nil, err
	}
	return ev, nil
}

// sealEvent encrypts ev under the capability password, keeps the owner's
// key as a fallback recipient and signs with the session key.
func (s *AgendaService) sealEvent(ctx context.Context, sess *session.Session, ev *documents.Event, access documents.EventAccess, ownerPub string) (wire.EventPutRequest, error) {
	text, err := ev.Encode()
	if err != nil {
		return wire.EventPutRequest{}, err
	}
	passwordHashed, err := derivePasswordID(ctx, access.Owner, access.Password)
	if err != nil {
		return wire.EventPutRequest{}, err
	}

	var env string
	err = sess.WithKey(func(key *crypto.Key) error {
		var serr error
		env, serr = cryptox.SealSymmetric(text, ownerPub, access.Password, key)
		return serr
	})
	if err != nil {
		return wire.EventPutRequest{}, err
	}
	return wire.EventPutRequest{ID: ev.ID, PasswordHashed: passwordHashed, EventEncryptedSigned: env}, nil
}

func (s *AgendaService) access(ctx context.Context, id string) (documents.EventAccess, error) {
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return documents.EventAccess{}, err
	}
	access, _, ok := md.FindEventAccess(id)
	if !ok {
		return documents.EventAccess{}, fmt.Errorf("%w: event %s", common.ErrorNotFound, id)
	}
	return access, nil
}

// GetEvent opens the event behind a capability held in the profile.
func (s *AgendaService) GetEvent(ctx context.Context, id string) (*documents.Event, error) {
	access, err := s.access(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FetchEvent(ctx, access)
}

// FetchEvent opens the event behind access. The envelope must be signed by
// the owner or by one of the attendees the event lists, since any of them
// may have written the current version.
func (s *AgendaService) FetchEvent(ctx context.Context, access documents.EventAccess) (*documents.Event, error) {
	passwordHashed, err := derivePasswordID(ctx, access.Owner, access.Password)
	if err != nil {
		return nil, err
	}
	cacheKey := cache.EventKey(access.ID)

	env, err := s.client.GetEvent(ctx, access.ID, passwordHashed)
	fromRelay := err == nil
	if errors.Is(err, client.ErrUnavailable) {
		if cached, cerr := s.cache.Get(ctx, cacheKey); cerr == nil && cached != nil {
			env, err = string(cached), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("event: %w", err)
	}

	text, err := cryptox.OpenSymmetric(env, access.Password)
	if err != nil {
		return nil, err
	}
	ev, err := documents.DecodeEvent(text)
	if err != nil {
		return nil, err
	}
	if ev.ID != access.ID || ev.Owner != access.Owner {
		return nil, fmt.Errorf("%w: event does not match its capability", common.ErrMalformedInput)
	}
	if err := s.verifyEventSigner(ctx, env, access.Password, ev); err != nil {
		return nil, err
	}

	if fromRelay {
		_ = s.cache.Set(ctx, cacheKey, []byte(env))
	}
	return ev, nil
}

func (s *AgendaService) verifyEventSigner(ctx context.Context, env, password string, ev *documents.Event) error {
	candidates := append([]string{ev.Owner}, ev.Attendees...)
	for _, username := range candidates {
		pub, err := s.keys.lookup(ctx, username)
		if err != nil {
			continue
		}
		if _, err := cryptox.OpenSymmetricVerified(env, password, pub); err == nil {
			return nil
		}
	}
	return common.ErrSignatureInvalid
}

// UpdateEvent rewrites the editable fields. Any capability holder may do
// this; the new version is signed by the editor.
func (s *AgendaService) UpdateEvent(ctx context.Context, id string, props documents.EventProperties) (*documents.Event, error) {
	access, err := s.access(ctx, id)
	if err != nil {
		return nil, err
	}
	ev, err := s.FetchEvent(ctx, access)
	if err != nil {
		return nil, err
	}
	if err := ev.Update(props); err != nil {
		return nil, err
	}
	if err := s.storeEvent(ctx, ev, access); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *AgendaService) storeEvent(ctx context.Context, ev *documents.Event, access documents.EventAccess) error {
	sess, err := s.sessions.Session()
	if err != nil {
		return err
	}
	ownerPub := sess.PublicKeyArmored()
	if access.Owner != sess.Username() {
		if ownerPub, err = s.keys.lookup(ctx, access.Owner); err != nil {
			return fmt.Errorf("owner key: %w", err)
		}
	}

	req, err := s.sealEvent(ctx, sess, ev, access, ownerPub)
	if err != nil {
		return err
	}
	if err := s.client.UpdateEvent(ctx, req); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	_ = s.cache.Set(ctx, cache.EventKey(ev.ID), []byte(req.EventEncryptedSigned))
	return nil
}

// DeleteEvent removes the event from the relay when the user owns it and
// drops the capability from the profile in any case.
func (s *AgendaService) DeleteEvent(ctx context.Context, id string) error {
	sess, err := s.sessions.Session()
	if err != nil {
		return err
	}
	access, err := s.access(ctx, id)
	if err != nil {
		return err
	}
	if access.Owner == sess.Username() {
		if err := s.client.DeleteEvent(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("delete event: %w", err)
		}
	}
	_, err = s.update(ctx, func(md *documents.Metadata) error {
		md.RemoveEvent(id)
		return nil
	})
	if err == nil {
		_ = s.cache.Delete(ctx, cache.EventKey(id))
	}
	return err
}

// ListEvents opens every event of agenda, a few at a time, in agenda order.
func (s *AgendaService) ListEvents(ctx context.Context, agenda int) ([]*documents.Event, error) {
	md, err := s.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if agenda < 0 || agenda >= len(md.Agendas) {
		return nil, fmt.Errorf("%w: no agenda %d", common.ErrorNotFound, agenda)
	}

	accesses := md.Agendas[agenda].Events
	out := make([]*documents.Event, len(accesses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, access := range accesses {
		g.Go(func() error {
			ev, err := s.FetchEvent(gctx, access)
			if err != nil {
				return fmt.Errorf("event %s: %w", access.ID, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
