package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/metrics"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
	"git.home.luguber.info/inful/tocbuilder/internal/preview"
)

// PreviewCmd serves the rendered site locally, rebuilding when local source
// directories change.
type PreviewCmd struct {
	Addr     string        `help:"Listen address (overrides config)"`
	Debounce time.Duration `help:"Delay between a change and the rebuild (overrides config)"`
	Metrics  bool          `help:"Expose Prometheus metrics on /metrics"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	addr := ":8080"
	debounce := 500 * time.Millisecond
	if cfg.Preview != nil {
		addr = cfg.Preview.Addr
		debounce = cfg.Preview.Debounce
	}
	if p.Addr != "" {
		addr = p.Addr
	}
	if p.Debounce > 0 {
		debounce = p.Debounce
	}

	// Only local directories can be watched; git sources are rebuilt on
	// the initial build and left alone afterwards.
	var watchDirs []string
	for _, src := range cfg.Sources {
		if src.Path != "" {
			watchDirs = append(watchDirs, src.Path)
		}
	}
	if len(watchDirs) == 0 {
		return fmt.Errorf("preview needs at least one source with a local path")
	}

	var opts []pipeline.Option
	var recorder *metrics.PrometheusRecorder
	if p.Metrics {
		recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithRecorder(recorder))
	}

	srv := preview.NewServer(newPipeline(cfg, nil, opts...), watchDirs, cfg.Output.Directory, addr, debounce)
	if recorder != nil {
		srv.WithMetricsHandler(recorder.Handler())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Serving %s on http://localhost%s\n", cfg.Output.Directory, addr)
	return srv.Run(ctx)
}
