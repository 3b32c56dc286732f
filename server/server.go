// Package server hosts the relay endpoint and the grid read API. It holds
// the fee-paying relayer key server-side: users sign EIP-712 placements,
// the server submits them on-chain and pays gas.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/config"
	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/logger"
)

// Server serves the relay and read API over a dedicated mux.
type Server struct {
	cfg    *config.Config
	reader chain.Reader
	writer chain.Writer // nil when no relayer key is configured

	logger  *zap.SugaredLogger
	mux     *http.ServeMux
	hub     *Hub
	limiter *ipLimiter

	httpServer *http.Server
	startTime  time.Time
	devMode    bool
}

// New creates a server over the given contract capabilities. writer may be
// nil; the relay endpoint then fails fast with a configuration error while
// the read API keeps working.
func New(cfg *config.Config, reader chain.Reader, writer chain.Writer) *Server {
	s := &Server{
		cfg:       cfg,
		reader:    reader,
		writer:    writer,
		logger:    logger.Named("server"),
		mux:       http.NewServeMux(),
		hub:       NewHub(),
		limiter:   newIPLimiter(cfg.Server.RelayRatePerMin),
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

// SetDevMode relaxes CORS and origin checks for local development.
func (s *Server) SetDevMode(enabled bool) {
	s.devMode = enabled
}

// Handler returns the server's mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts serving and blocks until ctx is cancelled or the listener
// fails. Shutdown drains in-flight requests; a relay submission that is
// already waiting for a transaction gets shutdownGrace to finish.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("HTTP server listening", "port", s.cfg.Server.Port)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
		s.logger.Infow("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.hub.CloseAll()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down http server")
		}
		return nil
	}
}

// shutdownGrace bounds how long shutdown waits for in-flight relay
// submissions, which block on transaction mining.
const shutdownGrace = 90 * time.Second
