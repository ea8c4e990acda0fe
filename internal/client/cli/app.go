package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/client/config"
	"github.com/dmitrijs2005/gophagenda/internal/client/services"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/dmitrijs2005/gophagenda/internal/filex"
	"github.com/dmitrijs2005/gophagenda/internal/logging"
	"github.com/dmitrijs2005/gophagenda/internal/session"
	"github.com/dmitrijs2005/gophagenda/internal/token"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	cacheFile           = "cache.db"
	onlineCheckInterval = 15 * time.Second
)

type authService interface {
	Register(ctx context.Context, username, password string) (*session.Session, error)
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Export(ctx context.Context, dir string) (string, error)
	Session() (*session.Session, error)
	LoggedIn() bool
	Ping(ctx context.Context) error
}

type agendaService interface {
	ListAgendas(ctx context.Context) ([]documents.Agenda, error)
	CreateAgenda(ctx context.Context, name string) (int, error)
	Contacts(ctx context.Context) ([]string, error)
	CreateEvent(ctx context.Context, agenda int, props documents.EventProperties) (*documents.Event, error)
	GetEvent(ctx context.Context, id string) (*documents.Event, error)
	UpdateEvent(ctx context.Context, id string, props documents.EventProperties) (*documents.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, agenda int) ([]*documents.Event, error)
}

type invitationService interface {
	InviteContact(ctx context.Context, username string) error
	InviteToEvent(ctx context.Context, username, id string) error
	Pending(ctx context.Context) ([]documents.Invitation, error)
	Accept(ctx context.Context, username string) (*documents.Invitation, error)
	Decline(ctx context.Context, username string) error
	CollectResponses(ctx context.Context) ([]documents.Invitation, error)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	authService       authService
	agendaService     agendaService
	invitationService invitationService

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, parseLevel(c.LogLevel), false)

	dir, err := filex.EnsureSubDir(c.CacheDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, cacheFile))
	if err != nil {
		logger.Error(ctx, "error initializing cache", "error", err)
		return nil, err
	}

	relay, err := client.NewRelayClient(c.ServerURL, c.RequestTimeout, c.Insecure)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := client.NewRepositories(db)
	auth := services.NewAuthService(relay, repos.Cache, token.SystemClock{}, c.TokenValidity)
	agendas := services.NewAgendaService(relay, repos.Cache, auth)
	invites := services.NewInvitationService(relay, repos.Cache, auth, agendas, logger)

	return &App{
		config:            c,
		logger:            logger,
		db:                db,
		authService:       auth,
		agendaService:     agendas,
		invitationService: invites,
		reader:            bufio.NewReader(os.Stdin),
		out:               os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.authService.LoggedIn()
}

// status is shown in the prompt: "(alice online)".
func (a *App) status() string {
	s := ""
	if sess, err := a.authService.Session(); err == nil {
		s = sess.Username() + " "
	}
	s += string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}

// Run starts the connectivity watcher and the REPL. On return the session
// is closed and the cache database released.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	printlnFn("Welcome to GophAgenda (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)

	if a.isLoggedIn() {
		if err := a.authService.Logout(ctx); err != nil {
			a.logger.Warn(ctx, "logout on exit", "error", err)
		}
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
