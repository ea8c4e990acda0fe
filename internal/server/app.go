// Package server wires the relay together: it opens Postgres, applies the
// migrations, builds the services and runs the HTTP API until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophagenda/internal/logging"
	"github.com/dmitrijs2005/gophagenda/internal/server/config"
	"github.com/dmitrijs2005/gophagenda/internal/server/httpapi"
	"github.com/dmitrijs2005/gophagenda/internal/server/metrics"
	"github.com/dmitrijs2005/gophagenda/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophagenda/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, parseLevel(c.LogLevel), true)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return newApp(c, logger, db, m), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, m repomanager.RepositoryManager) *App {
	accounts := services.NewAccountService(db, m, nil)

	opts := []httpapi.Option{
		httpapi.WithLimiter(ratelimit.New(c.RateLimitPoints, c.RateLimitPeriod, c.BlockDuration), c.SensitiveCost),
		httpapi.WithMetrics(metrics.New(), c.MetricsPath),
	}
	if c.ExportEnabled() {
		opts = append(opts, httpapi.WithExporter(services.NewExportService(db, m, c)))
	}

	api := httpapi.NewServer(
		accounts,
		services.NewEventService(db, m),
		services.NewInvitationService(db, m),
		accounts.Verifier(),
		logger,
		opts...,
	)

	return &App{config: c, logger: logger, db: db, api: api}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	err := app.api.Run(ctx, httpapi.ListenConfig{
		Addr:            app.config.ListenAddr,
		TLSCertFile:     app.config.TLSCertFile,
		TLSKeyFile:      app.config.TLSKeyFile,
		ShutdownTimeout: app.config.ShutdownTimeout,
	})
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until the server stops, then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "export", app.config.ExportEnabled())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
