package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	TimeWindowHours           int                     `mapstructure:"time_window_hours"`
	ExecutionIntervalSeconds  int                     `mapstructure:"execution_interval_seconds"`
	LLM                       LLMConfig               `mapstructure:"llm"`
	MarketSnapshot            MarketSnapshotConfig    `mapstructure:"market_snapshot"`
	Telegram                  TelegramConfig          `mapstructure:"telegram"`
	TelegramCommands          TelegramCommandsConfig  `mapstructure:"telegram_commands"`
	Fetchers                  []FetcherConfig         `mapstructure:"fetchers"`
	Storage                   StorageConfig           `mapstructure:"storage"`
	Log                       LogConfig               `mapstructure:"log"`
}

// LLMConfig configures the StructuredOutputClient's backend.
type LLMConfig struct {
	Provider            string  `mapstructure:"provider"` // "openai" | "anthropic"
	Endpoint            string  `mapstructure:"endpoint"`
	Model               string  `mapstructure:"model"`
	APIKeyEnv           string  `mapstructure:"api_key_env"`
	Temperature         float64 `mapstructure:"temperature"`
	MaxTokens           int     `mapstructure:"max_tokens"`
	BatchSize           int     `mapstructure:"batch_size"`
	MaxBatchParallelism int     `mapstructure:"max_batch_parallelism"`
}

// MarketSnapshotConfig configures C3's web-search-enabled LLM call.
type MarketSnapshotConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// TelegramConfig configures report delivery (C7).
type TelegramConfig struct {
	BotTokenEnv string `mapstructure:"bot_token_env"`
	ChatID      string `mapstructure:"chat_id"`
	ParseMode   string `mapstructure:"parse_mode"`
}

// TelegramCommandsConfig configures the command subsystem (C8).
type TelegramCommandsConfig struct {
	Enabled                 bool               `mapstructure:"enabled"`
	AuthorizedUsers         []AuthorizedUser   `mapstructure:"authorized_users"`
	ExecutionTimeoutMinutes int                `mapstructure:"execution_timeout_minutes"`
	MaxConcurrentExecutions int                `mapstructure:"max_concurrent_executions"`
	CommandRateLimit        CommandRateLimit   `mapstructure:"command_rate_limit"`
}

// AuthorizedUser grants a Telegram user a set of command permissions.
type AuthorizedUser struct {
	UserID      string   `mapstructure:"user_id"`
	Username    string   `mapstructure:"username"`
	Permissions []string `mapstructure:"permissions"`
}

// CommandRateLimit bounds how often a user may invoke /run.
type CommandRateLimit struct {
	MaxCommandsPerHour int `mapstructure:"max_commands_per_hour"`
	CooldownMinutes    int `mapstructure:"cooldown_minutes"`
}

// FetcherConfig is a provider-specific ContentFetcher configuration; the
// Type field selects rss or x, the remaining fields are interpreted by
// that fetcher's constructor.
type FetcherConfig struct {
	Type     string            `mapstructure:"type"` // "rss" | "x"
	Name     string            `mapstructure:"name"`
	URLs     []string          `mapstructure:"urls"`     // rss feed URLs
	Query    string            `mapstructure:"query"`    // x search query
	Command  string            `mapstructure:"command"`  // x: external CLI binary path
	CookieEnv string           `mapstructure:"cookie_env"`
	Options  map[string]string `mapstructure:"options"`
}

// StorageConfig configures the embedded store and retention sweep.
type StorageConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// Load reads configuration via the layered viper pattern: built-in
// defaults, then the global ~/.newsbot/config.yaml, then a project-local
// ./config/config.yaml or ./config.yaml merged on top, then NEWSBOT_-
// prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	globalDir := filepath.Join(os.Getenv("HOME"), ".newsbot")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	for _, localDir := range []string{"./config", "."} {
		localPath := filepath.Join(localDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			v2 := viper.New()
			v2.SetConfigFile(localPath)
			if err := v2.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(v2.AllSettings())
			}
			break
		}
	}

	v.SetEnvPrefix("NEWSBOT")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("time_window_hours", 24)
	v.SetDefault("execution_interval_seconds", 3600)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.batch_size", 10)
	v.SetDefault("llm.max_batch_parallelism", 2)

	v.SetDefault("market_snapshot.ttl_minutes", 30)

	v.SetDefault("telegram.parse_mode", "Markdown")

	v.SetDefault("telegram_commands.enabled", false)
	v.SetDefault("telegram_commands.execution_timeout_minutes", 30)
	v.SetDefault("telegram_commands.max_concurrent_executions", 1)
	v.SetDefault("telegram_commands.command_rate_limit.max_commands_per_hour", 6)
	v.SetDefault("telegram_commands.command_rate_limit.cooldown_minutes", 5)

	v.SetDefault("storage.path", "newsbot.db")
	v.SetDefault("storage.retention_days", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// ExecutionTimeout returns the configured per-run watchdog as a duration.
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.TelegramCommands.ExecutionTimeoutMinutes) * time.Minute
}

// ResolveSecret reads the environment variable named by envKey and errors
// if it is unset, matching this spec's *_env indirection for secrets.
func ResolveSecret(envKey string) (string, error) {
	if envKey == "" {
		return "", nil
	}
	val := os.Getenv(envKey)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envKey)
	}
	return val, nil
}
