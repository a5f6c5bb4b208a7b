package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// State backends accepted by STATE_BACKEND.
const (
	StateBackendSQLite = "sqlite"
	StateBackendFile   = "file"
)

// Text generation providers accepted by LLM_PROVIDER.
const (
	LLMProviderGroq   = "groq"
	LLMProviderGemini = "gemini"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/meal-board.db"`
	StateBackend string `env:"STATE_BACKEND" envDefault:"sqlite"`
	StateDir     string `env:"STATE_DIR" envDefault:"data/state"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	AutosaveDelay time.Duration `env:"AUTOSAVE_DELAY" envDefault:"800ms"`

	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM Config (optional, enables the recipe clipper)
	LLMProvider  string `env:"LLM_PROVIDER" envDefault:"groq"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Telegram Config (optional)
	TelegramBotToken       string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramWebhookSecret  string  `env:"TELEGRAM_WEBHOOK_SECRET"`
	TelegramAllowedUserIDs []int64 `env:"TELEGRAM_ALLOWED_USER_IDS" envSeparator:","`
	TelegramBoardUserID    string  `env:"TELEGRAM_BOARD_USER_ID"`
	AdminTelegramID        int64   `env:"TELEGRAM_ADMIN_ID"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch cfg.StateBackend {
	case StateBackendSQLite, StateBackendFile:
	default:
		return nil, fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", StateBackendSQLite, StateBackendFile, cfg.StateBackend)
	}

	switch cfg.LLMProvider {
	case LLMProviderGroq, LLMProviderGemini:
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderGroq, LLMProviderGemini, cfg.LLMProvider)
	}

	if cfg.AutosaveDelay <= 0 {
		return nil, fmt.Errorf("AUTOSAVE_DELAY must be positive")
	}

	return &cfg, nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if c.TelegramEnabled() {
		if c.TelegramWebhookURL == "" {
			return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
		}
		if c.TelegramBoardUserID == "" {
			return fmt.Errorf("TELEGRAM_BOARD_USER_ID environment variable not set")
		}
	}
	return nil
}

// TelegramEnabled reports whether the bot transport should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// LLMEnabled reports whether an API key exists for the selected provider.
func (c *Config) LLMEnabled() bool {
	switch c.LLMProvider {
	case LLMProviderGemini:
		return c.GeminiAPIKey != ""
	default:
		return c.GroqAPIKey != ""
	}
}
