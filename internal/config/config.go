package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KASABOT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: KASABOT_MAX_TOKENS -> max_tokens,
	// KASABOT_SERVER_PORT -> server.port, etc.
	if err := k.Load(env.Provider("KASABOT_", ".", envKeyPath), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKeyPath maps an environment variable name to its config key. Only
// the section prefix becomes a path separator; underscores inside leaf
// names (max_tokens, fallback_reply) are part of the key and survive.
func envKeyPath(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "KASABOT_"))
	for _, section := range []string{"telegram", "knowledge", "server"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative")
	}
	if c.PromptBudget <= 0 {
		return fmt.Errorf("prompt_budget must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownGraceSeconds <= 0 {
		return fmt.Errorf("server.shutdown_grace_seconds must be positive")
	}

	if c.Knowledge.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("knowledge.refresh_interval_minutes must be positive")
	}
	if c.Knowledge.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("knowledge.fetch_timeout_seconds must be positive")
	}
	if c.Knowledge.MaxFetchAttempts < 1 {
		return fmt.Errorf("knowledge.max_fetch_attempts must be at least 1")
	}
	if c.Knowledge.WebsiteURL != "" && !strings.HasPrefix(c.Knowledge.WebsiteURL, "http") {
		return fmt.Errorf("knowledge.website_url must be an http(s) URL")
	}

	if c.Telegram.PollTimeoutSeconds < 1 {
		return fmt.Errorf("telegram.poll_timeout_seconds must be at least 1")
	}
	if c.Telegram.SendRatePerSecond < 1 {
		return fmt.Errorf("telegram.send_rate_per_second must be at least 1")
	}

	return nil
}
