// Package pipeline orchestrates the build: materialize sources, scan
// documents, resolve navigation, check integrity, render output. Stage
// timings and outcomes are reported through the metrics Recorder, and
// completed builds are recorded in the state store when one is attached.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/document"
	"git.home.luguber.info/inful/tocbuilder/internal/gitsource"
	"git.home.luguber.info/inful/tocbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
	"git.home.luguber.info/inful/tocbuilder/internal/metrics"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
	"git.home.luguber.info/inful/tocbuilder/internal/render"
	"git.home.luguber.info/inful/tocbuilder/internal/state"
)

// Stage names used in logs and metrics.
const (
	StageSources = "sources"
	StageScan    = "scan"
	StageResolve = "resolve"
	StageCheck   = "check"
	StageRender  = "render"
	StageVerify  = "verify"
)

// Outcome values for a completed build.
const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeFailed  = "failed"
)

// Result carries everything a build produced.
type Result struct {
	BuildID  string
	Docs     []document.Document
	Assets   []document.Asset
	Tree     *navtree.Tree
	Report   *linkcheck.Report
	Outcome  string
	Duration time.Duration
	Changed  []string // docnames changed since the previous recorded build

	started time.Time
}

// Pipeline runs builds for one configuration.
type Pipeline struct {
	cfg          *config.Config
	recorder     metrics.Recorder
	store        *state.Store
	workspaceDir string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithStore attaches a build state store.
func WithStore(s *state.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithWorkspaceDir overrides where git sources are checked out.
func WithWorkspaceDir(dir string) Option {
	return func(p *Pipeline) { p.workspaceDir = dir }
}

// New creates a pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:          cfg,
		recorder:     metrics.NoopRecorder{},
		workspaceDir: ".tocbuilder/sources",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes a full build into outputDir.
func (p *Pipeline) Run(ctx context.Context, outputDir string) (*Result, error) {
	result, err := p.analyze(ctx)
	if err != nil {
		return nil, err
	}

	err = p.stage(StageRender, func() error {
		if p.cfg.Output.Clean {
			if err := render.Clean(outputDir); err != nil {
				return err
			}
		}
		r := render.New(render.Site{
			Title:       p.cfg.Site.Title,
			Description: p.cfg.Site.Description,
			BaseURL:     p.cfg.Site.BaseURL,
		}, p.cfg.Nav.MaxDepth)
		return r.Render(outputDir, result.Docs, result.Assets, result.Tree)
	})
	if err != nil {
		p.finish(ctx, result, OutcomeFailed)
		return nil, err
	}

	err = p.stage(StageVerify, func() error {
		findings, err := linkcheck.VerifyRenderedOutput(outputDir)
		if err != nil {
			return err
		}
		result.Report.Findings = append(result.Report.Findings, findings...)
		return nil
	})
	if err != nil {
		p.finish(ctx, result, OutcomeFailed)
		return nil, err
	}

	p.finish(ctx, result, outcomeFor(result.Report))
	return result, nil
}

// Check executes validation without rendering.
func (p *Pipeline) Check(ctx context.Context) (*Result, error) {
	result, err := p.analyze(ctx)
	if err != nil {
		return nil, err
	}
	result.Outcome = outcomeFor(result.Report)
	return result, nil
}

// Discover materializes sources and scans documents, without resolution.
func (p *Pipeline) Discover(ctx context.Context) ([]document.Document, []document.Asset, error) {
	scanSources, err := p.materializeSources()
	if err != nil {
		return nil, nil, err
	}
	return document.NewScanner(scanSources).Scan()
}

// analyze runs the shared front half: sources, scan, resolve, check.
func (p *Pipeline) analyze(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: uuid.NewString(), started: start}
	slog.Info("Starting build", logfields.BuildID(result.BuildID))

	var scanSources []document.ScanSource
	err := p.stage(StageSources, func() error {
		var err error
		scanSources, err = p.materializeSources()
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(StageScan, func() error {
		var err error
		result.Docs, result.Assets, err = document.NewScanner(scanSources).Scan()
		return err
	})
	if err != nil {
		return nil, err
	}

	var diags []navtree.Diagnostic
	err = p.stage(StageResolve, func() error {
		root := p.rootDocname()
		result.Tree, diags = navtree.NewResolver(result.Docs).Resolve(root)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(StageCheck, func() error {
		checker := linkcheck.NewChecker(linkcheck.Options{
			OrphanAllowlist: p.cfg.Nav.OrphanAllowlist,
			CheckExternal:   p.cfg.Nav.CheckExternal,
		})
		result.Report = checker.Check(ctx, result.Docs, result.Tree, diags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		changed, err := p.store.ChangedSince(ctx, fingerprintMap(result.Docs))
		if err != nil {
			slog.Warn("Change detection failed", logfields.Error(err))
		} else {
			result.Changed = changed
		}
	}

	result.Duration = time.Since(start)
	p.recorder.SetDocumentCount(len(result.Docs))
	p.recorder.SetFindingCount(len(result.Report.Findings))
	return result, nil
}

// materializeSources resolves configured sources to local directories.
func (p *Pipeline) materializeSources() ([]document.ScanSource, error) {
	client := gitsource.NewClient(p.workspaceDir)
	out := make([]document.ScanSource, 0, len(p.cfg.Sources))
	for _, src := range p.cfg.Sources {
		dir, err := client.Materialize(src)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		out = append(out, document.ScanSource{Name: src.Name, Dir: dir})
	}
	return out, nil
}

// rootDocname prefixes the configured root with the first source name when
// docnames are namespaced (multiple sources).
func (p *Pipeline) rootDocname() string {
	if len(p.cfg.Sources) > 1 {
		return p.cfg.Sources[0].Name + "/" + p.cfg.Site.RootDoc
	}
	return p.cfg.Site.RootDoc
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	p.recorder.ObserveStageDuration(name, d)
	if err != nil {
		p.recorder.IncStageResult(name, metrics.ResultFatal)
		slog.Error("Stage failed", logfields.Stage(name), logfields.Error(err))
		return fmt.Errorf("stage %s: %w", name, err)
	}
	p.recorder.IncStageResult(name, metrics.ResultSuccess)
	slog.Debug("Stage complete", logfields.Stage(name), logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

func (p *Pipeline) finish(ctx context.Context, result *Result, outcome string) {
	result.Outcome = outcome
	result.Duration = time.Since(result.started)
	p.recorder.ObserveBuildDuration(result.Duration)
	p.recorder.IncBuildOutcome(outcome)

	if p.store != nil {
		rec := state.BuildRecord{
			ID:              result.BuildID,
			StartedAt:       result.started,
			FinishedAt:      time.Now(),
			Outcome:         outcome,
			DocumentCount:   len(result.Docs),
			FindingCount:    len(result.Report.Findings),
			DocsFingerprint: document.SetFingerprint(result.Docs),
		}
		if err := p.store.RecordBuild(ctx, rec, fingerprintMap(result.Docs)); err != nil {
			slog.Warn("Failed to record build", logfields.BuildID(result.BuildID), logfields.Error(err))
		}
	}

	slog.Info("Build finished",
		logfields.BuildID(result.BuildID),
		slog.String("outcome", outcome),
		logfields.Count(len(result.Docs)),
		slog.Int("findings", len(result.Report.Findings)))
}

func outcomeFor(report *linkcheck.Report) string {
	switch {
	case report.HasErrors():
		return OutcomeFailed
	case report.HasWarnings():
		return OutcomeWarning
	default:
		return OutcomeSuccess
	}
}

func fingerprintMap(docs []document.Document) map[string]string {
	m := make(map[string]string, len(docs))
	for _, d := range docs {
		m[d.Docname] = d.Fingerprint
	}
	return m
}
