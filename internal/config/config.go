package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig     `yaml:"site"`
	Sources []Source       `yaml:"sources"`
	Nav     NavConfig      `yaml:"nav"`
	Output  OutputConfig   `yaml:"output"`
	State   StateConfig    `yaml:"state"`
	Preview *PreviewConfig `yaml:"preview,omitempty"`
	Daemon  *DaemonConfig  `yaml:"daemon,omitempty"`
}

// SiteConfig describes the documentation project being indexed.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	RootDoc     string `yaml:"root_doc"` // docname of the master document, e.g. "index"
}

// Source is one place documentation is read from: a local directory or a
// git repository cloned into the workspace cache.
type Source struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path,omitempty"`   // local directory
	URL    string `yaml:"url,omitempty"`    // git remote, mutually exclusive with path
	Branch string `yaml:"branch,omitempty"` // git branch, defaults to the remote HEAD
}

// NavConfig tunes navigation resolution and validation.
type NavConfig struct {
	MaxDepth        int      `yaml:"max_depth,omitempty"` // global cap; 0 means unlimited
	OrphanAllowlist []string `yaml:"orphan_allowlist,omitempty"`
	CheckExternal   bool     `yaml:"check_external,omitempty"` // HTTP-check external entries during `check`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// StateConfig locates the build state database.
type StateConfig struct {
	Database string `yaml:"database,omitempty"` // sqlite path, ":memory:" for ephemeral; empty disables the store
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// DaemonConfig configures continuous mode.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	NATS     *NATSConfig   `yaml:"nats,omitempty"`
}

// NATSConfig configures build event publishing.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; missing files are fine.
	loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse unmarshals configuration bytes, expands environment variables,
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site: SiteConfig{
			Title:   "My Documentation",
			RootDoc: "index",
		},
		Sources: []Source{
			{Name: "docs", Path: "./docs"},
			{Name: "library", URL: "https://github.com/example/library.git", Branch: "main"},
		},
		Nav: NavConfig{
			OrphanAllowlist: []string{"changelog"},
		},
		Output: OutputConfig{
			Directory: "./site",
			Clean:     true,
		},
		State: StateConfig{
			Database: "./tocbuilder.db",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
