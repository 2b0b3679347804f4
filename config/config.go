// Package config loads service configuration from a TOML file with
// environment overrides for the values that never belong in a file: API
// keys, the encryption secret and the database URL.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hatira-labs/hatira/credentials"
)

// Config holds all runtime settings.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
	Memory    MemoryConfig    `toml:"memory"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider       string `toml:"provider"` // anthropic, openai, google
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	MaxTokens      int    `toml:"max_tokens"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig selects and configures the memory backend.
type StorageConfig struct {
	// Backend is one of "memory", "bleve", "postgres".
	Backend     string `toml:"backend"`
	BlevePath   string `toml:"bleve_path"`
	DatabaseURL string `toml:"database_url"`

	// EncryptionKey seals memory content at rest.
	EncryptionKey string `toml:"encryption_key"`
}

// MemoryConfig tunes the pipeline.
type MemoryConfig struct {
	Locale        string `toml:"locale"`     // "tr" or "en"
	MaxTopics     int    `toml:"max_topics"` // distinct-topic cap
	PageSize      int    `toml:"page_size"`  // search page size
	FallbackTopic string `toml:"fallback_topic"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	BindAddr               string `toml:"bind_addr"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	MetricsNamespace       string `toml:"metrics_namespace"`
}

// RateLimitConfig bounds per-user analysis spend.
type RateLimitConfig struct {
	Capacity      int `toml:"capacity"`
	WindowSeconds int `toml:"window_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "anthropic",
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      1024,
			TimeoutSeconds: 45,
		},
		Storage: StorageConfig{
			Backend:   "bleve",
			BlevePath: "data/memories.bleve",
		},
		Memory: MemoryConfig{
			Locale:        "tr",
			MaxTopics:     20,
			PageSize:      5,
			FallbackTopic: "Genel Anı",
		},
		Server: ServerConfig{
			BindAddr:               ":8080",
			ShutdownTimeoutSeconds: 15,
			MetricsNamespace:       "hatira",
		},
		RateLimit: RateLimitConfig{
			Capacity:      30,
			WindowSeconds: 3600,
		},
	}
}

// Load reads the TOML file at path (skipped when empty or missing),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := cfg.applyCredentials(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyCredentials fills secrets left empty by the config file from the
// credentials file, when one exists.
func (c *Config) applyCredentials() error {
	creds, path, err := credentials.Load()
	if err != nil {
		return fmt.Errorf("loading credentials %s: %w", path, err)
	}
	if creds == nil {
		return nil
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = creds.GetAPIKey(c.LLM.Provider)
	}
	if c.Storage.EncryptionKey == "" {
		c.Storage.EncryptionKey = creds.GetEncryptionKey()
	}
	return nil
}

// applyEnv overrides secrets and deployment-specific values from the
// environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("HATIRA_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("HATIRA_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("HATIRA_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("HATIRA_ENCRYPTION_KEY"); v != "" {
		c.Storage.EncryptionKey = v
	}
	if v := os.Getenv("HATIRA_DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("HATIRA_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("HATIRA_BIND_ADDR"); v != "" {
		c.Server.BindAddr = v
	}
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive")
	}

	switch c.Storage.Backend {
	case "memory":
	case "bleve":
		if c.Storage.BlevePath == "" {
			return fmt.Errorf("bleve backend requires bleve_path")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("postgres backend requires database_url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.EncryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}

	switch c.Memory.Locale {
	case "tr", "en":
	default:
		return fmt.Errorf("unknown locale %q", c.Memory.Locale)
	}
	if c.Memory.MaxTopics <= 0 {
		return fmt.Errorf("max_topics must be positive")
	}
	return nil
}

// LLMTimeout returns the completion timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the server drain timeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// RateLimitWindow returns the budget window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	if c.RateLimit.WindowSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
