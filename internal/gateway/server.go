// Package gateway serves the read-only status API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"hookwatch/internal/delivery"
	"hookwatch/internal/gateway/handlers"
	"hookwatch/internal/gateway/middleware"
	"hookwatch/internal/rules"
)

// Options holds the dependencies of the status server.
type Options struct {
	Addr    string
	Version string
	Table   *rules.Table
	Stats   *delivery.Stats
	Ready   handlers.ReadyFunc
	Logger  zerolog.Logger
}

// Server represents the HTTP status server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	logger     zerolog.Logger
	startedAt  time.Time

	mu       sync.RWMutex
	listener net.Listener
}

// NewServer creates a new status server and registers its routes.
func NewServer(opts Options) *Server {
	router := mux.NewRouter()
	log := opts.Logger.With().Str("component", "gateway").Logger()

	s := &Server{
		router:    router,
		logger:    log,
		startedAt: time.Now(),
	}

	// Apply middleware chain: Recovery -> Logging
	handler := middleware.Recovery(log)(middleware.Logging(log)(router))

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes(opts)
	return s
}

// setupRoutes configures the server routes.
func (s *Server) setupRoutes(opts Options) {
	s.router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	s.router.HandleFunc("/healthz",
		handlers.HealthHandler(opts.Version, s.startedAt, opts.Table.Len(), opts.Ready)).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rules", handlers.RulesHandler(opts.Table)).Methods(http.MethodGet)
	api.HandleFunc("/rules/{channel_id}", handlers.RuleHandler(opts.Table, func(r *http.Request) string {
		return mux.Vars(r)["channel_id"]
	})).Methods(http.MethodGet)
	api.HandleFunc("/stats", handlers.StatsHandler(opts.Stats)).Methods(http.MethodGet)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Msg("Starting status server")

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug().Msg("Shutting down status server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound address once serving, or the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// IsReady returns true once the server is listening.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}

// Router returns the underlying router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
