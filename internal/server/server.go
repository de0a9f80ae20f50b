// Package server assembles the watcher: rule table, event sources, delivery,
// status API and periodic jobs. The CLI only creates, starts and stops it.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	internalChannel "hookwatch/internal/channel"
	"hookwatch/internal/channel/discord"
	"hookwatch/internal/config"
	"hookwatch/internal/cron"
	"hookwatch/internal/delivery"
	"hookwatch/internal/gateway"
	"hookwatch/internal/rules"
	"hookwatch/internal/watcher"
	"hookwatch/pkg/channel"
)

// ErrConfigChanged is sent on ErrorChan when the configuration file changes
// and watch_config.exit_on_change is set.
var ErrConfigChanged = errors.New("server: configuration file changed")

// Server is the running watcher process.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     zerolog.Logger

	table      *rules.Table
	dispatcher *delivery.Dispatcher
	handler    *watcher.Handler
	registry   *internalChannel.Registry
	status     *gateway.Server
	scheduler  *cron.Scheduler
	cfgWatcher *config.Watcher

	ready     atomic.Bool
	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	errChan   chan error
}

// ServerConfig holds the inputs of NewServer.
type ServerConfig struct {
	Config     *config.Config
	ConfigPath string
	Version    string
	Logger     zerolog.Logger
	// Sources replaces the Discord session, mainly for tests.
	Sources []channel.Source
}

// NewServer compiles the rule table and wires every component. It fails on
// configuration errors before anything connects.
func NewServer(sc ServerConfig) (*Server, error) {
	cfg := sc.Config
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if err := cfg.ValidateChannels(); err != nil {
		return nil, err
	}

	table, err := rules.Compile(cfg.Channels)
	if err != nil {
		return nil, err
	}
	for _, w := range table.Warnings() {
		sc.Logger.Warn().Msg(w)
	}

	s := &Server{
		cfg:        cfg,
		configPath: sc.ConfigPath,
		logger:     sc.Logger,
		table:      table,
		registry:   internalChannel.NewRegistry(),
		errChan:    make(chan error, 4),
	}

	s.dispatcher = delivery.New(delivery.Options{
		DefaultWebhook: cfg.DefaultWebhook,
		Policy:         delivery.NewRetryPolicy(cfg.Delivery.MaxRetries, cfg.Delivery.RetryDelay),
		Timeout:        cfg.Delivery.Timeout,
		Logger:         sc.Logger,
	})
	s.handler = watcher.NewHandler(table, s.dispatcher, sc.Logger)

	sources := sc.Sources
	if len(sources) == 0 {
		src, err := discord.New(discord.Config{Token: cfg.Discord.UserToken, Bot: cfg.Discord.Bot}, sc.Logger)
		if err != nil {
			return nil, err
		}
		sources = []channel.Source{src}
	}
	for _, src := range sources {
		s.registry.Register(src)
	}

	if cfg.Report.Schedule != "" {
		s.scheduler = cron.NewScheduler(sc.Logger, nil)
		if err := cron.NewReporter(s.dispatcher.Stats(), sc.Logger).Register(s.scheduler, cfg.Report.Schedule); err != nil {
			return nil, fmt.Errorf("report schedule: %w", err)
		}
	}

	if cfg.Status.Enabled {
		s.status = gateway.NewServer(gateway.Options{
			Addr:    cfg.Status.Addr(),
			Version: sc.Version,
			Table:   table,
			Stats:   s.dispatcher.Stats(),
			Ready:   s.IsReady,
			Logger:  sc.Logger,
		})
	}

	if cfg.WatchConfig.Enabled && sc.ConfigPath != "" {
		w, err := config.NewWatcher(sc.ConfigPath, sc.Logger, s.onConfigChange)
		if err != nil {
			return nil, err
		}
		s.cfgWatcher = w
	}

	return s, nil
}

// ErrorChan returns the error channel for monitoring background failures.
func (s *Server) ErrorChan() <-chan error {
	return s.errChan
}

// Start connects the event sources and starts the background components.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.registry.Bind(s.handleMessage, s.handleReady)

	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}

	if s.status != nil {
		go func() {
			if err := s.status.Start(); err != nil {
				s.sendError(err)
			}
		}()
	}

	if s.cfgWatcher != nil {
		if err := s.cfgWatcher.Start(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to watch configuration file")
		}
	}

	if err := s.registry.StartAll(ctx); err != nil {
		_ = s.Stop(ctx)
		return err
	}
	return nil
}

// Stop disconnects the sources, then waits for in-flight deliveries up to
// delivery.drain_timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()
	s.ready.Store(false)

	var errs []error
	if err := s.registry.StopAll(ctx); err != nil {
		errs = append(errs, err)
	}

	if s.cfgWatcher != nil {
		_ = s.cfgWatcher.Stop()
	}

	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}

	drainCtx := ctx
	if s.cfg.Delivery.DrainTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, s.cfg.Delivery.DrainTimeout)
		defer cancel()
	}
	if err := s.dispatcher.Wait(drainCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Deliveries still pending at shutdown")
		errs = append(errs, err)
	}

	if s.status != nil {
		if err := s.status.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// IsRunning reports whether Start has been called without Stop.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsReady reports whether a source has signalled ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// GetStartedAt returns when Start was called.
func (s *Server) GetStartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Table returns the compiled rule table.
func (s *Server) Table() *rules.Table {
	return s.table
}

// Dispatcher returns the delivery dispatcher.
func (s *Server) Dispatcher() *delivery.Dispatcher {
	return s.dispatcher
}

// StatusAddr returns the address of the status API, or "" when disabled.
func (s *Server) StatusAddr() string {
	if s.status == nil {
		return ""
	}
	return s.status.Addr()
}

func (s *Server) handleMessage(ctx context.Context, msg channel.Message) error {
	return s.handler.HandleMessage(ctx, msg)
}

func (s *Server) handleReady(ctx context.Context, ev channel.ReadyEvent) {
	s.ready.Store(true)
	s.handler.HandleReady(ctx, ev)
}

func (s *Server) onConfigChange(path string) {
	if s.cfg.WatchConfig.ExitOnChange {
		s.logger.Warn().Str("path", path).Msg("Configuration changed, shutting down")
		s.sendError(ErrConfigChanged)
		return
	}
	s.logger.Warn().Str("path", path).Msg("Configuration changed, restart to apply")
}

func (s *Server) sendError(err error) {
	select {
	case s.errChan <- err:
	default:
		s.logger.Error().Err(err).Msg("Dropped background error")
	}
}
