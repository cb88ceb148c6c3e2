package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
)

// CheckCmd implements the 'check' command: validation without rendering.
type CheckCmd struct {
	JSON     bool `help:"Emit findings as JSON"`
	External bool `help:"Probe external toctree entries over HTTP"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.External {
		cfg.Nav.CheckExternal = true
	}

	result, err := newPipeline(cfg, nil).Check(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printFindings(result.Report)
	}

	if result.Report.HasErrors() {
		return fmt.Errorf("check found broken references")
	}
	return nil
}
