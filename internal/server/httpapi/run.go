package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// ListenConfig describes how Run serves the handler.
type ListenConfig struct {
	Addr            string
	TLSCertFile     string
	TLSKeyFile      string
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled, then shuts down gracefully. TLS is used
// when both certificate files are set.
func (s *Server) Run(ctx context.Context, lc ListenConfig) error {
	listen, err := net.Listen("tcp", lc.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen, lc)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener, lc ListenConfig) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), lc.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String(), "tls", lc.TLSCertFile != "")

	var err error
	if lc.TLSCertFile != "" && lc.TLSKeyFile != "" {
		err = srv.ServeTLS(listen, lc.TLSCertFile, lc.TLSKeyFile)
	} else {
		err = srv.Serve(listen)
	}
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
