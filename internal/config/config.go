package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/futig/docqa/internal/pkg/retry"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080" validate:"required"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile  string `env:"LOG_FILE"`

	// Summarizer service
	SummarizerCfg SummarizerConnectorConfig `envPrefix:"SUMMARIZER_"`

	// Delivery of settled flows to client callback URLs
	CallbackCfg CallbackConnectorConfig `envPrefix:"CALLBACK_"`

	// In-memory session registry
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration, validated only when the bot is built
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_" validate:"-"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN" validate:"required"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60" validate:"min=1,max=600"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20" validate:"min=1,max=60"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5" validate:"min=1,max=20"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30" validate:"min=1,max=300"` // seconds

	// Backoff for Bot API sends that failed with flood control or a server error
	SendRetry retry.Config `envPrefix:"SEND_RETRY_"`
}

// CallbackConnectorConfig holds delivery settings for client callbacks.
// Each request names its own URL.
type CallbackConnectorConfig struct {
	HTTPClientConfig
	Retry retry.Config `envPrefix:"RETRY_"`
}

type SummarizerConnectorConfig struct {
	HTTPClientConfig
	SummarizeEndpoint string `env:"SUMMARIZE_ENDPOINT" envDefault:"/api/summarize/" validate:"required"`
	AskEndpoint       string `env:"ASK_ENDPOINT" envDefault:"/api/ask/" validate:"required"`
	FileField         string `env:"FILE_FIELD" envDefault:"file" validate:"required"`
}

// HTTPClientConfig holds transport settings. A zero duration disables that limit.
type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"180s" validate:"min=0"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"30s" validate:"min=0"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s" validate:"min=0"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s" validate:"min=0"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"0s" validate:"min=0"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"http://127.0.0.1:8000" validate:"required,url"`
}

type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"1h" validate:"gt=0"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m" validate:"gt=0"`
}

// FileUploadConfig holds document intake limits
type FileUploadConfig struct {
	MaxFileSize       int64    `env:"MAX_FILE_SIZE" envDefault:"20971520" validate:"gt=0"` // 20 MiB
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" envDefault:".pdf" envSeparator:"," validate:"min=1,dive,startswith=."`
}

// LoadConfig loads .env.<environment> if present and parses the environment.
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment
	normalizeExtensions(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	return validate.Struct(cfg)
}

// ValidateTelegram checks the settings that only the bot needs.
func (c *Config) ValidateTelegram() error {
	if err := validate.Struct(&c.TelegramCfg); err != nil {
		return fmt.Errorf("telegram config validation failed: %w", err)
	}
	return nil
}

func normalizeExtensions(cfg *Config) {
	exts := make([]string, 0, len(cfg.FileUploadCfg.AllowedExtensions))
	for _, ext := range cfg.FileUploadCfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.FileUploadCfg.AllowedExtensions = exts
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development", "":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
