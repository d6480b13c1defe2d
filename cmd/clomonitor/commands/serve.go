package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/clomonitor/internal/config"
	"git.home.luguber.info/inful/clomonitor/internal/daemon"
)

// stopTimeout bounds the graceful shutdown: HTTP drain, residual view
// flush and scheduler teardown all have to finish within it.
const stopTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct{}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.RequireDB(); err != nil {
		return err
	}
	if err := cfg.RequireGitHubTokens(); err != nil {
		return err
	}
	return RunServe(cfg, root.Config, root.Verbose)
}

// RunServe operates the daemon until SIGINT or SIGTERM, then shuts it down
// gracefully.
func RunServe(cfg *config.Config, configPath string, verbose bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(ctx, daemon.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Verbose:    verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	return nil
}
