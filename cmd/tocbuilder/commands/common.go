// Package commands holds the CLI command implementations.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
	"git.home.luguber.info/inful/tocbuilder/internal/state"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"tocbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the navigation tree and render the site"`
	Check    CheckCmd    `cmd:"" help:"Validate toctree references without rendering"`
	Discover DiscoverCmd `cmd:"" help:"List discovered documents without building"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the site locally and rebuild on changes"`
	Daemon   DaemonCmd   `cmd:"" help:"Rebuild continuously on a schedule"`
	History  HistoryCmd  `cmd:"" help:"Show recent recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// openStore opens the configured build state database, or returns nil when
// no database is configured.
func openStore(cfg *config.Config) (*state.Store, error) {
	if cfg.State.Database == "" {
		return nil, nil
	}
	store, err := state.Open(cfg.State.Database)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	return store, nil
}

// newPipeline assembles a pipeline with the optional store attached.
func newPipeline(cfg *config.Config, store *state.Store, opts ...pipeline.Option) *pipeline.Pipeline {
	if store != nil {
		opts = append(opts, pipeline.WithStore(store))
	}
	return pipeline.New(cfg, opts...)
}

// printFindings writes findings to stdout, one per line.
func printFindings(report *linkcheck.Report) {
	for _, f := range report.Findings {
		fmt.Println(f.String())
	}
}
