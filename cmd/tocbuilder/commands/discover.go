package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Source string `short:"s" help:"Only list documents from this source"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	docs, assets, err := newPipeline(cfg, nil).Discover(context.Background())
	if err != nil {
		return err
	}

	listed := 0
	for _, doc := range docs {
		if d.Source != "" && doc.Source != d.Source {
			continue
		}
		listed++
		fmt.Printf("%s\t%s\t%s\n", doc.Docname, doc.Format, doc.Title)
	}

	fmt.Printf("%d documents, %d assets\n", listed, len(assets))
	return nil
}
