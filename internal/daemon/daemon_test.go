package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/daemon/events"
	"git.home.luguber.info/inful/tocbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
)

type stubBuilder struct {
	runs   atomic.Int64
	result *pipeline.Result
}

func (b *stubBuilder) Run(_ context.Context, _ string) (*pipeline.Result, error) {
	b.runs.Add(1)
	return b.result, nil
}

func daemonConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{Directory: "./site"},
		Daemon: &config.DaemonConfig{Interval: time.Hour},
	}
}

func TestNew_RequiresDaemonSection(t *testing.T) {
	_, err := New(&config.Config{}, &stubBuilder{})
	require.Error(t, err)
}

func TestPublishResult_EmitsLifecycleEvents(t *testing.T) {
	builder := &stubBuilder{result: &pipeline.Result{
		BuildID: "b1",
		Outcome: pipeline.OutcomeFailed,
		Report: &linkcheck.Report{Findings: []linkcheck.Finding{
			{Docname: "index", Line: 4, Severity: navtree.SeverityError, Rule: linkcheck.RuleToctree, Message: "unknown document"},
			{Docname: "stray", Severity: navtree.SeverityWarning, Rule: linkcheck.RuleOrphan, Message: "orphan"},
		}},
	}}

	d, err := New(daemonConfig(), builder)
	require.NoError(t, err)
	defer d.Bus().Close()

	finished, unsubF := events.Subscribe[events.BuildFinished](d.Bus(), 1)
	defer unsubF()
	broken, unsubB := events.Subscribe[events.BrokenReference](d.Bus(), 4)
	defer unsubB()

	ctx := context.Background()
	d.buildOnce(ctx)
	require.Equal(t, int64(1), builder.runs.Load())

	select {
	case evt := <-finished:
		require.Equal(t, "b1", evt.BuildID)
		require.Equal(t, pipeline.OutcomeFailed, evt.Outcome)
		require.Equal(t, 2, evt.FindingCount)
	case <-time.After(time.Second):
		t.Fatal("no build finished event")
	}

	// Only the error-severity finding becomes a broken reference event.
	select {
	case evt := <-broken:
		require.Equal(t, "index", evt.Docname)
		require.Equal(t, 4, evt.Line)
		require.Equal(t, linkcheck.RuleToctree, evt.Rule)
	case <-time.After(time.Second):
		t.Fatal("no broken reference event")
	}
	require.Empty(t, broken)
}

func TestRun_BuildsOnceThenStopsOnCancel(t *testing.T) {
	builder := &stubBuilder{result: &pipeline.Result{
		BuildID: "b1",
		Outcome: pipeline.OutcomeSuccess,
		Report:  &linkcheck.Report{},
	}}

	d, err := New(daemonConfig(), builder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		return builder.runs.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
