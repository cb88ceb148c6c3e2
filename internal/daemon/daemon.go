// Package daemon runs continuous builds: a gocron schedule triggers the
// pipeline periodically, and build lifecycle events flow over an in-process
// bus with optional NATS publishing.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/daemon/events"
	"git.home.luguber.info/inful/tocbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
)

// Builder is the part of the pipeline the daemon drives.
type Builder interface {
	Run(ctx context.Context, outputDir string) (*pipeline.Result, error)
}

// Daemon rebuilds the site on a fixed interval.
type Daemon struct {
	cfg       *config.Config
	builder   Builder
	bus       *events.Bus
	scheduler gocron.Scheduler
	publisher *Publisher
}

// New creates a daemon. The configuration must carry a daemon section.
func New(cfg *config.Config, builder Builder) (*Daemon, error) {
	if cfg.Daemon == nil {
		return nil, fmt.Errorf("daemon mode is not configured")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		builder:   builder,
		bus:       events.NewBus(),
		scheduler: scheduler,
	}, nil
}

// Bus exposes the event bus for additional subscribers.
func (d *Daemon) Bus() *events.Bus { return d.bus }

// Run builds once immediately, then on every interval tick, until the
// context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Daemon.NATS != nil {
		pub, err := NewPublisher(d.cfg.Daemon.NATS)
		if err != nil {
			return err
		}
		d.publisher = pub
		d.publisher.Attach(ctx, d.bus)
		defer d.publisher.Close()
	}
	defer d.bus.Close()

	interval := d.cfg.Daemon.Interval
	_, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.buildOnce(ctx) }),
		gocron.WithName("periodic-build"),
	)
	if err != nil {
		return fmt.Errorf("schedule periodic build: %w", err)
	}

	slog.Info("Daemon started",
		logfields.ScheduleName("periodic-build"),
		slog.Duration("interval", interval))

	d.buildOnce(ctx)
	d.scheduler.Start()

	<-ctx.Done()
	slog.Info("Daemon stopping")
	return d.scheduler.Shutdown()
}

// buildOnce runs one build and publishes its lifecycle events.
func (d *Daemon) buildOnce(ctx context.Context) {
	result, err := d.builder.Run(ctx, d.cfg.Output.Directory)
	if err != nil {
		slog.Error("Scheduled build failed", logfields.Error(err))
		return
	}
	d.publishResult(ctx, result)
}

func (d *Daemon) publishResult(ctx context.Context, result *pipeline.Result) {
	now := time.Now()
	evt := events.BuildFinished{
		BuildID:       result.BuildID,
		Outcome:       result.Outcome,
		DocumentCount: len(result.Docs),
		FindingCount:  len(result.Report.Findings),
		Duration:      result.Duration,
		Timestamp:     now,
	}
	if err := d.bus.Publish(ctx, evt); err != nil {
		slog.Warn("Failed to publish build event", logfields.BuildID(result.BuildID), logfields.Error(err))
		return
	}

	for _, f := range result.Report.Findings {
		if f.Severity != navtree.SeverityError {
			continue
		}
		d.publishBrokenReference(ctx, result.BuildID, f, now)
	}
}

func (d *Daemon) publishBrokenReference(ctx context.Context, buildID string, f linkcheck.Finding, now time.Time) {
	evt := events.BrokenReference{
		BuildID:   buildID,
		Docname:   f.Docname,
		Line:      f.Line,
		Rule:      f.Rule,
		Message:   f.Message,
		Timestamp: now,
	}
	if err := d.bus.Publish(ctx, evt); err != nil {
		slog.Warn("Failed to publish broken reference event",
			logfields.Docname(f.Docname), logfields.Error(err))
	}
}
