package config

import "time"

// DefaultFallbackReply is sent when message handling fails and no custom
// reply is configured.
const DefaultFallbackReply = "Sorry, something went wrong while answering that. Please try again in a moment."

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:        "gpt-4o-mini",
		MaxTokens:    1024,
		Temperature:  0.7,
		HistoryLimit: 10,
		PromptBudget: 24000,
		Telegram: TelegramConfig{
			FallbackReply:      DefaultFallbackReply,
			PollTimeoutSeconds: 30,
			SendRatePerSecond:  25,
		},
		Knowledge: KnowledgeConfig{
			RefreshIntervalMinutes: 60,
			FetchTimeoutSeconds:    10,
			MaxFetchAttempts:       3,
		},
		Server: ServerConfig{
			Port:                 8080,
			ShutdownGraceSeconds: 15,
		},
	}
}

// RefreshInterval returns the knowledge refresh interval as a duration.
func (c *KnowledgeConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// FetchTimeout returns the per-attempt source fetch timeout as a duration.
func (c *KnowledgeConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ShutdownGrace returns the in-flight drain budget as a duration.
func (c *ServerConfig) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// PollTimeout returns the Telegram long-poll timeout as a duration.
func (c *TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}
