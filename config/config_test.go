package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hatira.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "openai"
model = "gpt-4o"
api_key = "sk-test"
max_tokens = 2048

[storage]
backend = "memory"
encryption_key = "file-secret"

[memory]
locale = "en"
max_topics = 10
page_size = 3
fallback_topic = "General"

[server]
bind_addr = ":9090"

[ratelimit]
capacity = 10
window_seconds = 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Memory.MaxTopics != 10 || cfg.Memory.Locale != "en" {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	if cfg.Server.BindAddr != ":9090" {
		t.Errorf("bind addr = %q", cfg.Server.BindAddr)
	}
	if cfg.RateLimitWindow() != time.Minute {
		t.Errorf("rate limit window = %v, want 1m", cfg.RateLimitWindow())
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HATIRA_ENCRYPTION_KEY", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("default provider = %q", cfg.LLM.Provider)
	}
	if cfg.Memory.MaxTopics != 20 {
		t.Errorf("default max topics = %d", cfg.Memory.MaxTopics)
	}
	if cfg.Memory.FallbackTopic != "Genel Anı" {
		t.Errorf("default fallback topic = %q", cfg.Memory.FallbackTopic)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "anthropic"
model = "claude-sonnet-4-20250514"
api_key = "file-key"
max_tokens = 1024

[storage]
backend = "memory"
encryption_key = "file-secret"

[memory]
locale = "tr"
max_topics = 20
`)

	t.Setenv("HATIRA_LLM_API_KEY", "env-key")
	t.Setenv("HATIRA_ENCRYPTION_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.Storage.EncryptionKey != "env-secret" {
		t.Errorf("encryption key = %q, want env override", cfg.Storage.EncryptionKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "mistral" }},
		{"missing model", func(c *Config) { c.LLM.Model = "" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"postgres without url", func(c *Config) { c.Storage.Backend = "postgres"; c.Storage.DatabaseURL = "" }},
		{"bleve without path", func(c *Config) { c.Storage.Backend = "bleve"; c.Storage.BlevePath = "" }},
		{"missing encryption key", func(c *Config) { c.Storage.EncryptionKey = "" }},
		{"unknown locale", func(c *Config) { c.Memory.Locale = "de" }},
		{"zero topic cap", func(c *Config) { c.Memory.MaxTopics = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.EncryptionKey = "secret"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTimeoutDefaults(t *testing.T) {
	cfg := Default()
	cfg.LLM.TimeoutSeconds = 0
	cfg.Server.ShutdownTimeoutSeconds = 0

	if cfg.LLMTimeout() != 45*time.Second {
		t.Errorf("llm timeout = %v", cfg.LLMTimeout())
	}
	if cfg.ShutdownTimeout() != 15*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout())
	}
}
