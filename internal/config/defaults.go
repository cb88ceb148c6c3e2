package config

import "time"

const (
	defaultRootDoc     = "index"
	defaultOutputDir   = "./site"
	defaultPreviewAddr = ":8080"
	defaultDebounce    = 500 * time.Millisecond
	defaultInterval    = 15 * time.Minute
	defaultNATSSubject = "tocbuilder.builds"
)

// applyDefaults fills unset fields after unmarshal, before validation.
func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Documentation"
	}
	if cfg.Site.RootDoc == "" {
		cfg.Site.RootDoc = defaultRootDoc
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
		cfg.Output.Clean = true
	}
	// State.Database has no default: an empty value disables the store.
	if cfg.Preview != nil {
		if cfg.Preview.Addr == "" {
			cfg.Preview.Addr = defaultPreviewAddr
		}
		if cfg.Preview.Debounce <= 0 {
			cfg.Preview.Debounce = defaultDebounce
		}
	}
	if cfg.Daemon != nil {
		if cfg.Daemon.Interval <= 0 {
			cfg.Daemon.Interval = defaultInterval
		}
		if cfg.Daemon.NATS != nil && cfg.Daemon.NATS.Subject == "" {
			cfg.Daemon.NATS.Subject = defaultNATSSubject
		}
	}
}
