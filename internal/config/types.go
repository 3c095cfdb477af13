package config

// Config is the top-level kasabot configuration, corresponding to kasabot.yml.
// Credentials (TELEGRAM_TOKEN, OPENAI_API_KEY) deliberately never appear
// here; they are read from the environment at startup.
type Config struct {
	Model        string  `yaml:"model" koanf:"model"`
	MaxTokens    int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature  float64 `yaml:"temperature" koanf:"temperature"`
	HistoryLimit int     `yaml:"history_limit" koanf:"history_limit"`
	PromptBudget int     `yaml:"prompt_budget" koanf:"prompt_budget"`

	Telegram  TelegramConfig  `yaml:"telegram" koanf:"telegram"`
	Knowledge KnowledgeConfig `yaml:"knowledge" koanf:"knowledge"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

// TelegramConfig holds the Telegram-facing settings.
type TelegramConfig struct {
	// FallbackReply is sent when a message cannot be answered. An empty
	// string switches the failure policy to a silent logged drop.
	FallbackReply string `yaml:"fallback_reply" koanf:"fallback_reply"`
	// MainBotURL, when set, adds a "return to main bot" button to menus.
	MainBotURL         string `yaml:"main_bot_url" koanf:"main_bot_url"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds" koanf:"poll_timeout_seconds"`
	// SendRatePerSecond caps outbound sendMessage calls.
	SendRatePerSecond int `yaml:"send_rate_per_second" koanf:"send_rate_per_second"`
}

// KnowledgeConfig describes the external knowledge sources and the refresh
// schedule.
type KnowledgeConfig struct {
	// DocIDs are Google Doc identifiers fetched via the plain-text export
	// endpoint.
	DocIDs []string `yaml:"doc_ids" koanf:"doc_ids"`
	// WebsiteURL is scraped and reduced to visible text.
	WebsiteURL             string `yaml:"website_url" koanf:"website_url"`
	RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes" koanf:"refresh_interval_minutes"`
	FetchTimeoutSeconds    int    `yaml:"fetch_timeout_seconds" koanf:"fetch_timeout_seconds"`
	MaxFetchAttempts       int    `yaml:"max_fetch_attempts" koanf:"max_fetch_attempts"`
}

// ServerConfig holds the health server settings.
type ServerConfig struct {
	Port                 int `yaml:"port" koanf:"port"`
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds" koanf:"shutdown_grace_seconds"`
}
