package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
)

// HistoryCmd lists recent builds from the state database.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no state database configured")
	}
	defer func() { _ = store.Close() }()

	builds, err := store.RecentBuilds(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println("No recorded builds")
		return nil
	}

	for _, b := range builds {
		fmt.Printf("%s  %s  %-7s  %d docs  %d findings\n",
			b.StartedAt.Format("2006-01-02 15:04:05"),
			b.ID, b.Outcome, b.DocumentCount, b.FindingCount)
	}
	return nil
}
