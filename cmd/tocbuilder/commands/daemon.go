package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/daemon"
	"git.home.luguber.info/inful/tocbuilder/internal/metrics"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
)

// DaemonCmd implements the 'daemon' command: continuous scheduled rebuilds.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Daemon == nil {
		return fmt.Errorf("no daemon section in %s", root.Config)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	p := newPipeline(cfg, store, pipeline.WithRecorder(recorder))

	dmn, err := daemon.New(cfg, p)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return dmn.Run(ctx)
}
