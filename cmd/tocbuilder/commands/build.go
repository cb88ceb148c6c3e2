package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the rendered site (overrides config)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	outputDir := cfg.Output.Directory
	if b.Output != "" {
		outputDir = b.Output
	}

	result, err := newPipeline(cfg, store).Run(context.Background(), outputDir)
	if err != nil {
		return err
	}

	printFindings(result.Report)
	fmt.Printf("Build %s: %d documents, %d findings -> %s\n",
		result.Outcome, len(result.Docs), len(result.Report.Findings), outputDir)

	if result.Outcome == pipeline.OutcomeFailed {
		return fmt.Errorf("build finished with errors")
	}
	return nil
}
