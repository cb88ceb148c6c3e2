package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate validates the complete configuration structure.
func Validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}

	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("source %q: duplicate name", src.Name)
		}
		seen[src.Name] = struct{}{}

		switch {
		case src.Path == "" && src.URL == "":
			return fmt.Errorf("source %q: either path or url is required", src.Name)
		case src.Path != "" && src.URL != "":
			return fmt.Errorf("source %q: path and url are mutually exclusive", src.Name)
		}
	}

	if strings.ContainsAny(cfg.Site.RootDoc, " \t") {
		return fmt.Errorf("site.root_doc %q: docnames cannot contain whitespace", cfg.Site.RootDoc)
	}
	if cfg.Nav.MaxDepth < 0 {
		return fmt.Errorf("nav.max_depth %d: must be zero or positive", cfg.Nav.MaxDepth)
	}
	if cfg.Daemon != nil && cfg.Daemon.NATS != nil && cfg.Daemon.NATS.URL == "" {
		return errors.New("daemon.nats.url is required when NATS publishing is configured")
	}
	return nil
}
