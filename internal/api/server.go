// Package api exposes the assistant over HTTP REST.
//
// Endpoints:
//
//	POST   /api/query          → ask a question, get answer + sources
//	GET    /api/courses        → catalog statistics
//	POST   /api/sessions       → create a session
//	DELETE /api/sessions/{id}  → clear a session
//	GET    /health             → liveness probe
//	GET    /ready              → readiness probe (pings the database)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery and request logging
//   - query.go: the chat endpoint
//   - courses.go: catalog statistics
//   - session.go: session management
//   - health.go: probes
//   - response.go: JSON helpers
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to prevent Slowloris-style
	// connection exhaustion.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because a query holds the connection
	// through up to two model calls.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle bound.
	IdleTimeout = 120 * time.Second
)

// Server is the REST API server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	query   *QueryHandler
	courses *CoursesHandler
	session *SessionHandler
	health  *HealthHandler
}

// ServerConfig wires the server's dependencies.
type ServerConfig struct {
	Assistant Querier
	Catalog   CourseLister
	Sessions  SessionManager
	DB        Pinger // readiness probe; nil reports not ready
	Logger    *slog.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		logger:  logger,
		query:   NewQueryHandler(cfg.Assistant, logger),
		courses: NewCoursesHandler(cfg.Catalog, logger),
		session: NewSessionHandler(cfg.Sessions, logger),
		health:  NewHealthHandler(cfg.DB, logger),
	}

	s.query.RegisterRoutes(mux)
	s.courses.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)

	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger))
}

// Run starts the server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
