package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hookwatch/internal/server"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to Discord and relay matching messages",
		Long: `Connect to Discord and relay matching messages.

Every configured channel is watched. A message is relayed when its author
is listed, or when its text or any embed mentions a configured role or
matches a keyword. Deliveries are retried on failure and logged.`,
		Example: `  # Watch with the default configuration (~/.hookwatch/config.yaml)
  hookwatch watch

  # Watch with a custom configuration and the status API enabled
  hookwatch watch -c ./config.yaml --status --port 8787`,
		RunE: runWatch,
	}

	cmd.Flags().Bool("status", false, "enable the status API (overrides config)")
	cmd.Flags().IntP("port", "p", 0, "status API port (overrides config)")
	cmd.Flags().String("host", "", "status API host (overrides config)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return fmt.Errorf("CLI context not initialized")
	}

	cfg := cliCtx.Config
	log := cliCtx.Log()

	// Override config with flags if provided
	if enabled, _ := cmd.Flags().GetBool("status"); enabled {
		cfg.Status.Enabled = true
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Status.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Status.Host = host
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(server.ServerConfig{
		Config:     cfg,
		ConfigPath: cliCtx.ConfigPath,
		Version:    Version,
		Logger:     *log,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	if addr := srv.StatusAddr(); addr != "" {
		log.Info().Str("address", "http://"+addr).Msg("Status API enabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	case err := <-srv.ErrorChan():
		if !errors.Is(err, server.ErrConfigChanged) {
			log.Error().Err(err).Msg("Watcher error")
			runErr = err
		}
	}

	// Graceful shutdown, bounded by the drain timeout plus a margin.
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Delivery.DrainTimeout+5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		if runErr == nil {
			runErr = err
		}
	}

	log.Info().Msg("Watcher stopped")
	return runErr
}
