// Package config loads the service settings from the environment and an
// optional .env file, and builds the logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr   string        `env:"SERVER_ADDR" envDefault:":3000" validate:"required"`
	ChatURL      string        `env:"CHAT_URL" envDefault:"http://localhost:8000/chat" validate:"required,url"`
	LanguagesURL string        `env:"LANGUAGES_URL" envDefault:"http://localhost:8000/languages" validate:"omitempty,url"`
	Timeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s" validate:"gt=0"`
	RedisAddr    string        `env:"REDIS_ADDR"`
	DatabaseURL  string        `env:"DATABASE_URL"`

	AllowedOrigins     string        `env:"ALLOWED_ORIGINS" envDefault:"*" validate:"required"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m" validate:"gte=0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	LogFile   string `env:"LOG_FILE"`

	SourceBaseURL   string `env:"SOURCE_BASE_URL" envDefault:"https://docs.example.com" validate:"url"`
	KeywordsFile    string `env:"KEYWORDS_FILE"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en" validate:"bcp47_language_tag"`

	HighlightDuration       time.Duration `env:"HIGHLIGHT_DURATION" envDefault:"2s" validate:"gt=0"`
	PanelTransitionTimeout  time.Duration `env:"PANEL_TRANSITION_TIMEOUT" envDefault:"500ms" validate:"gt=0"`
	NotificationTimeout     time.Duration `env:"NOTIFICATION_TIMEOUT" envDefault:"3s" validate:"gt=0"`
	AttachmentStatusTimeout time.Duration `env:"ATTACHMENT_STATUS_TIMEOUT" envDefault:"4s" validate:"gt=0"`
	HistoryTokenLog         bool          `env:"HISTORY_TOKEN_LOG" envDefault:"false"`
}

// Load reads envfile when it exists, then the environment. Variables
// already set win over the file.
func Load(envfile string) (*Config, error) {
	if envfile != "" {
		if err := godotenv.Load(envfile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envfile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
