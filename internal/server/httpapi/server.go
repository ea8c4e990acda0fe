// Package httpapi is the relay's HTTP surface: JSON routes under /api, the
// cookie authentication middleware, rate limiting and metrics.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/logging"
	"github.com/dmitrijs2005/gophagenda/internal/server/metrics"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophagenda/internal/token"
)

type Accounts interface {
	Register(ctx context.Context, acc *models.Account) error
	Login(ctx context.Context, usernameHashed, passwordHashed string) (string, error)
	IssueCookie(ctx context.Context, payloadSigned string) (string, token.Payload, error)
	PrivateKeyEncryptedArmored(ctx context.Context, usernameHashed string) (string, error)
	PublicKeyArmored(ctx context.Context, usernameHashed string) (string, error)
	Metadata(ctx context.Context, usernameHashed string) (string, error)
	UpdateMetadata(ctx context.Context, usernameHashed, metadataEncryptedSigned string) error
	Delete(ctx context.Context, usernameHashed string) error
}

type Events interface {
	Get(ctx context.Context, id, passwordHashed string) (string, error)
	Create(ctx context.Context, ev *models.Event) error
	Update(ctx context.Context, id, passwordHashed, eventEncryptedSigned string) error
	Delete(ctx context.Context, id, ownerUsernameHashed string) error
}

type Invitations interface {
	Send(ctx context.Context, senderHashed, receiverHashed, envelope string) error
	Requests(ctx context.Context, receiverHashed string) ([]*models.Invitation, error)
	Responses(ctx context.Context, senderHashed string) ([]*models.Invitation, error)
	Respond(ctx context.Context, receiverHashed, senderHashed, envelope string) error
	Delete(ctx context.Context, usernameHashed, otherHashed string) error
}

type Exporter interface {
	Export(ctx context.Context, usernameHashed string) (string, error)
}

// Authenticator checks a __Host-auth cookie value.
type Authenticator interface {
	Verify(ctx context.Context, cookieValue string) (token.Payload, error)
}

// Server wires the route handlers to their services.
type Server struct {
	accounts    Accounts
	events      Events
	invitations Invitations
	exporter    Exporter
	auth        Authenticator

	limiter       *ratelimit.Limiter
	metrics       *metrics.Metrics
	logger        logging.Logger
	clock         token.Clock
	sensitiveCost int
	metricsPath   string
}

type Option func(*Server)

func WithLimiter(l *ratelimit.Limiter, sensitiveCost int) Option {
	return func(s *Server) {
		s.limiter = l
		if sensitiveCost > 0 {
			s.sensitiveCost = sensitiveCost
		}
	}
}

func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		if path != "" {
			s.metricsPath = path
		}
	}
}

func WithExporter(e Exporter) Option {
	return func(s *Server) { s.exporter = e }
}

func WithClock(c token.Clock) Option {
	return func(s *Server) { s.clock = c }
}

func NewServer(accounts Accounts, events Events, invitations Invitations, auth Authenticator, logger logging.Logger, opts ...Option) *Server {
	s := &Server{
		accounts:      accounts,
		events:        events,
		invitations:   invitations,
		auth:          auth,
		logger:        logger,
		clock:         token.SystemClock{},
		sensitiveCost: 10,
		metricsPath:   "/metrics",
		metrics:       metrics.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the complete route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	sensitive := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.observe(pattern, s.rateLimit(s.sensitiveCost, h)))
	}
	open := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.observe(pattern, s.rateLimit(1, h)))
	}
	private := func(pattern string, h authedHandler) {
		mux.Handle(pattern, s.observe(pattern, s.rateLimit(1, s.authenticate(h))))
	}

	sensitive("POST /api/auth/register", s.register)
	sensitive("POST /api/auth/login", s.login)
	sensitive("POST /api/auth/cookie", s.cookie)
	open("POST /api/auth/logout", s.logout)

	private("GET /api/user/me/privateKeyEncryptedArmored", s.ownPrivateKey)
	private("GET /api/user/me/publicKeyArmored", s.ownPublicKey)
	private("GET /api/user/{usernameHashed}/publicKeyArmored", s.publicKey)
	private("GET /api/user/me/metadataEncryptedSigned", s.getMetadata)
	private("PUT /api/user/me/metadataEncryptedSigned", s.putMetadata)
	private("DELETE /api/user/me", s.deleteAccount)
	private("POST /api/user/me/export", s.export)

	private("POST /api/user/me/invitation", s.sendInvitation)
	private("GET /api/user/me/invitation", s.listRequests)
	private("GET /api/user/me/invitation/response", s.listResponses)
	private("PUT /api/user/me/invitation/{senderUsernameHashed}", s.respondInvitation)
	private("DELETE /api/user/me/invitation/{usernameHashed}", s.deleteInvitation)

	private("POST /api/event/{id}", s.getEvent)
	private("POST /api/event", s.createEvent)
	private("PUT /api/event", s.updateEvent)
	private("DELETE /api/event", s.deleteEvent)

	mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return secureHeaders(mux)
}
