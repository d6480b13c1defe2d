package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/clomonitor/internal/registrar"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// RegisterCmd implements the 'register' command: a single catalogue
// reconciliation pass.
type RegisterCmd struct{}

func (r *RegisterCmd) Run(_ *Global, root *CLI) error {
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

	reg := registrar.New(store, registrar.Options{
		Concurrency: cfg.Registrar.Concurrency,
		Timeout:     cfg.Registrar.Timeout(),
	})
	return reg.Run(ctx)
}
