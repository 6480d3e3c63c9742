package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// Secret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token; empty disables the check.
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// LLMConfig describes the completion provider.
type LLMConfig struct {
	// Provider selects the client: "openai" (OpenAI-compatible API, default) or "openrouter".
	Provider       string `yaml:"provider" envconfig:"LLM_PROVIDER"`
	BaseURL        string `yaml:"base_url" envconfig:"LLM_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"OPENROUTER_API_KEY"`
	Model          string `yaml:"model" envconfig:"LLM_MODEL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"LLM_TIMEOUT_SECONDS"`
	AppTitle       string `yaml:"app_title"`
	AppReferer     string `yaml:"app_referer"`
	// TokenEncoding names the tiktoken encoding used for prompt size estimates; "off" disables it.
	TokenEncoding string `yaml:"token_encoding" envconfig:"LLM_TOKEN_ENCODING"`
}

// BotConfig holds user-facing bot behaviour.
type BotConfig struct {
	// Language selects the UI string catalog ("fa" or "en").
	Language string `yaml:"language" envconfig:"BOT_LANGUAGE"`
}

// DatabaseConfig holds the optional exchange journal database.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// RedisConfig points to a shared redis used by the rate limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics and /healthz; empty disables the server.
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// ProviderOpenAI talks to any OpenAI-compatible endpoint through go-openai.
	ProviderOpenAI = "openai"
	// ProviderOpenRouter talks to OpenRouter through its native client.
	ProviderOpenRouter = "openrouter"
)

const (
	// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "x-ai/grok-4.1-fast:free"
	// DefaultLanguage is the UI language used when none is configured.
	DefaultLanguage = "fa"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

const (
	// LimiterMemory keeps rate limit state in process.
	LimiterMemory = "memory"
	// LimiterRedis keeps rate limit state in redis.
	LimiterRedis = "redis"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
	Backend        string   `yaml:"backend" envconfig:"RATE_LIMIT_BACKEND"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	LLM       LLMConfig       `yaml:"llm"`
	Bot       BotConfig       `yaml:"bot"`
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

var (
	// ErrMissingToken is returned when no Telegram bot token is configured.
	ErrMissingToken = errors.New("telegram token is required (TELEGRAM_BOT_TOKEN)")
	// ErrMissingAPIKey is returned when no LLM API key is configured.
	ErrMissingAPIKey = errors.New("llm api key is required (OPENROUTER_API_KEY)")
)

// Load reads configuration from an optional YAML file and environment variables.
// An empty path skips the file and relies on the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	if cfg.Telegram.Token == "" {
		return ErrMissingToken
	}
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := normalizeLLM(&cfg.LLM); err != nil {
		return err
	}

	lang := strings.ToLower(strings.TrimSpace(cfg.Bot.Language))
	if lang == "" {
		lang = DefaultLanguage
	}
	cfg.Bot.Language = lang

	if err := normalizeRateLimit(cfg); err != nil {
		return err
	}

	if cfg.Database.Enabled {
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when database.enabled is true")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	}
	return nil
}

func normalizeLLM(llm *LLMConfig) error {
	provider := strings.ToLower(strings.TrimSpace(llm.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	switch provider {
	case ProviderOpenAI, ProviderOpenRouter:
	default:
		return fmt.Errorf("invalid llm.provider %q; allowed: openai, openrouter", llm.Provider)
	}
	llm.Provider = provider

	if strings.TrimSpace(llm.BaseURL) == "" {
		llm.BaseURL = DefaultBaseURL
	}
	llm.BaseURL = strings.TrimRight(strings.TrimSpace(llm.BaseURL), "/")
	if strings.TrimSpace(llm.Model) == "" {
		llm.Model = DefaultModel
	}
	if llm.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be >= 0")
	}
	if llm.TimeoutSeconds == 0 {
		llm.TimeoutSeconds = 60
	}
	if llm.TokenEncoding == "" {
		llm.TokenEncoding = "o200k_base"
	}
	return nil
}

func normalizeRateLimit(cfg *Config) error {
	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	if backend == "" {
		backend = LimiterMemory
	}
	switch backend {
	case LimiterMemory:
	case LimiterRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when rate_limit.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid rate_limit.backend %q; allowed: memory, redis", cfg.RateLimit.Backend)
	}
	cfg.RateLimit.Backend = backend
	return nil
}
