package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("expected default model %q, got %q", "gpt-4o-mini", cfg.Model)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("expected default history_limit 10, got %d", cfg.HistoryLimit)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telegram.FallbackReply == "" {
		t.Error("expected a non-empty default fallback reply")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kasabot.yml")

	original := DefaultConfig()
	original.Model = "gpt-4o"
	original.PromptBudget = 8000
	original.Knowledge.DocIDs = []string{"doc-one", "doc-two"}
	original.Knowledge.WebsiteURL = "https://example.org/"
	original.Knowledge.RefreshIntervalMinutes = 120
	original.Telegram.FallbackReply = "Sorry, try again."

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.PromptBudget != original.PromptBudget {
		t.Errorf("prompt_budget: got %d, want %d", loaded.PromptBudget, original.PromptBudget)
	}
	if loaded.Knowledge.WebsiteURL != original.Knowledge.WebsiteURL {
		t.Errorf("website_url: got %q, want %q", loaded.Knowledge.WebsiteURL, original.Knowledge.WebsiteURL)
	}
	if loaded.Knowledge.RefreshIntervalMinutes != 120 {
		t.Errorf("refresh_interval_minutes: got %d, want 120", loaded.Knowledge.RefreshIntervalMinutes)
	}
	if loaded.Telegram.FallbackReply != original.Telegram.FallbackReply {
		t.Errorf("fallback_reply: got %q, want %q", loaded.Telegram.FallbackReply, original.Telegram.FallbackReply)
	}
	if len(loaded.Knowledge.DocIDs) != 2 {
		t.Fatalf("doc_ids length: got %d, want 2", len(loaded.Knowledge.DocIDs))
	}
	for i, v := range loaded.Knowledge.DocIDs {
		if v != original.Knowledge.DocIDs[i] {
			t.Errorf("doc_ids[%d]: got %q, want %q", i, v, original.Knowledge.DocIDs[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != DefaultConfig().Model {
		t.Errorf("expected default model, got %q", cfg.Model)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("KASABOT_MODEL", "gpt-4o")
	// Keys with underscores in the leaf name must override too, both at
	// the top level and inside sections.
	t.Setenv("KASABOT_MAX_TOKENS", "77")
	t.Setenv("KASABOT_TELEGRAM_FALLBACK_REPLY", "custom apology")
	t.Setenv("KASABOT_KNOWLEDGE_REFRESH_INTERVAL_MINUTES", "5")
	t.Setenv("KASABOT_SERVER_PORT", "9090")

	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("expected env override to apply, got model %q", cfg.Model)
	}
	if cfg.MaxTokens != 77 {
		t.Errorf("max_tokens: got %d, want 77", cfg.MaxTokens)
	}
	if cfg.Telegram.FallbackReply != "custom apology" {
		t.Errorf("telegram.fallback_reply: got %q, want %q", cfg.Telegram.FallbackReply, "custom apology")
	}
	if cfg.Knowledge.RefreshIntervalMinutes != 5 {
		t.Errorf("knowledge.refresh_interval_minutes: got %d, want 5", cfg.Knowledge.RefreshIntervalMinutes)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", cfg.Server.Port)
	}
}

func TestEnvKeyPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"KASABOT_MODEL", "model"},
		{"KASABOT_MAX_TOKENS", "max_tokens"},
		{"KASABOT_TELEGRAM_FALLBACK_REPLY", "telegram.fallback_reply"},
		{"KASABOT_KNOWLEDGE_REFRESH_INTERVAL_MINUTES", "knowledge.refresh_interval_minutes"},
		{"KASABOT_SERVER_SHUTDOWN_GRACE_SECONDS", "server.shutdown_grace_seconds"},
	}
	for _, tt := range tests {
		if got := envKeyPath(tt.in); got != tt.want {
			t.Errorf("envKeyPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero prompt budget", func(c *Config) { c.PromptBudget = 0 }},
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero grace period", func(c *Config) { c.Server.ShutdownGraceSeconds = 0 }},
		{"zero refresh interval", func(c *Config) { c.Knowledge.RefreshIntervalMinutes = 0 }},
		{"zero fetch attempts", func(c *Config) { c.Knowledge.MaxFetchAttempts = 0 }},
		{"bad website url", func(c *Config) { c.Knowledge.WebsiteURL = "ftp://example.org" }},
		{"zero poll timeout", func(c *Config) { c.Telegram.PollTimeoutSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
