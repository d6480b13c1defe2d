// Package commands holds the kong command tree of the clomonitor binary.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/clomonitor/internal/config"
)

// Global carries cross-command state should commands ever need to share any.
type Global struct{}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"clomonitor.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve    ServeCmd    `cmd:"" help:"Run the monitoring service: HTTP API plus scheduled registrar, tracker and archiver jobs"`
	Register RegisterCmd `cmd:"" help:"Run one catalogue reconciliation pass"`
	Track    TrackCmd    `cmd:"" help:"Run one tracking pass over every registered repository"`
	Archive  ArchiveCmd  `cmd:"" help:"Run one snapshot archiving pass"`
	Lint     LintCmd     `cmd:"" help:"Lint a local repository checkout and print its report"`
}

// AfterApply runs after flag parsing; set up logging once so config loading
// itself logs sensibly. Commands replace the handler with the configured one
// as soon as the config file is read.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration file and installs its log settings.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Apply(root.Verbose)
	return cfg, nil
}
