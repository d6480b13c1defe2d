package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/clomonitor/internal/archiver"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// ArchiveCmd implements the 'archive' command: a single snapshot and
// retention pass.
type ArchiveCmd struct{}

func (a *ArchiveCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.RequireDB(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.New(ctx, cfg.DB.URL)
	if err != nil {
		return err
	}
	defer store.Close()

	return archiver.New(store, archiver.Options{}).Run(ctx)
}
