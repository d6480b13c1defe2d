package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/clomonitor/internal/events"
	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
	"git.home.luguber.info/inful/clomonitor/internal/tracker"
)

// TrackCmd implements the 'track' command: a single tracking pass.
type TrackCmd struct{}

func (t *TrackCmd) Run(_ *Global, root *CLI) error {
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.New(ctx, cfg.DB.URL)
	if err != nil {
		return err
	}
	defer store.Close()

	var publisher *events.Publisher
	if cfg.Events.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			return err
		}
	}
	defer publisher.Close()

	trk, err := tracker.New(store, tracker.Options{
		Concurrency: cfg.Tracker.Concurrency,
		Timeout:     cfg.Tracker.Timeout(),
		Tokens:      cfg.GitHub.Tokens,
		Linter:      linter.New(linter.Options{ScorecardBin: cfg.Tracker.ScorecardBin}),
		Events:      publisher,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	return trk.Run(ctx)
}
