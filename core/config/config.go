// Package config loads docent's YAML configuration: which directories to
// index, which model provider to call, and how sessions and the server
// behave. Every field is optional; loading merges the file over defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docentsh/docent/core/index"
	"github.com/docentsh/docent/core/providers"
)

// Config is the full docent configuration.
type Config struct {
	Index    index.Config     `yaml:"index"`
	Provider providers.Config `yaml:"provider"`
	Agent    AgentConfig      `yaml:"agent"`
	Session  SessionConfig    `yaml:"session"`
	Server   ServerConfig     `yaml:"server"`
}

// AgentConfig tunes the tool loop.
type AgentConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	MaxTurns     int    `yaml:"max_turns"`
	MaxTokens    int    `yaml:"max_tokens"`
}

// Session store backends.
const (
	BackendMemory = "memory"
	BackendCache  = "cache"
	BackendSQLite = "sqlite"
)

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	// Backend is memory, cache, or sqlite.
	Backend string `yaml:"backend"`

	// MaxAge is the idle expiry duration.
	MaxAge time.Duration `yaml:"max_age"`

	// SQLitePath locates the database for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// ServerConfig tunes the HTTP transport.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	MaxMessageLength int    `yaml:"max_message_length"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Index: index.Config{
			DocsDir:     "docs",
			CodeDir:     ".",
			MaxFileSize: index.DefaultMaxFileSize,
		},
		Provider: providers.Config{
			Provider: providers.ProviderAnthropic,
		},
		Session: SessionConfig{
			Backend: BackendMemory,
			MaxAge:  24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8750",
		},
	}
}

// Load reads path and merges it over defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Session.Backend {
	case BackendMemory, BackendCache, BackendSQLite, "":
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	if cfg.Session.Backend == BackendSQLite && cfg.Session.SQLitePath == "" {
		return fmt.Errorf("session backend sqlite requires sqlite_path")
	}

	if cfg.Index.MaxFileSize < 0 {
		return fmt.Errorf("index max_file_size must not be negative")
	}

	return nil
}
