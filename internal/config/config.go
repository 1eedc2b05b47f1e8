// Package config manages application configuration from default values,
// an optional config.yaml file, and BOT_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds transport settings. BotInfo is resolved at startup
// via GetMe and is not read from configuration.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`

	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig holds the keep-alive HTTP endpoint settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// RateLimitConfig bounds accepted deliveries per user. The window is fixed
// and keyed off the user's last accepted request, not wall-clock boundaries.
type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"       validate:"min=1m"`
	MaxRequests int           `mapstructure:"max_requests" validate:"min=1"`
}

// SearchConfig controls query validation and fan-out limits.
type SearchConfig struct {
	MinQueryLength  int      `mapstructure:"min_query_length"  validate:"min=1"`
	PerChannelLimit int      `mapstructure:"per_channel_limit" validate:"min=1,max=50"`
	BannedWords     []string `mapstructure:"banned_words"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds every user-visible reply text.
type MessagesConfig struct {
	Welcome           string `mapstructure:"welcome"             validate:"required"`
	WelcomeAdmin      string `mapstructure:"welcome_admin"       validate:"required"`
	AdminBootstrapped string `mapstructure:"admin_bootstrapped"  validate:"required"`
	AdminPanel        string `mapstructure:"admin_panel"         validate:"required"`
	Unauthorized      string `mapstructure:"unauthorized"        validate:"required"`
	QueryTooShort     string `mapstructure:"query_too_short"     validate:"required"`
	QueryInvalid      string `mapstructure:"query_invalid"       validate:"required"`
	Searching         string `mapstructure:"searching"           validate:"required"`
	NoChannels        string `mapstructure:"no_channels"         validate:"required"`
	FoundFiles        string `mapstructure:"found_files"         validate:"required"`
	NoResults         string `mapstructure:"no_results"          validate:"required"`
	QuotaExceeded     string `mapstructure:"quota_exceeded"      validate:"required"`
	FileForwarded     string `mapstructure:"file_forwarded"      validate:"required"`
	GeneralError      string `mapstructure:"general_error"       validate:"required"`
	ForwardNotChannel string `mapstructure:"forward_not_channel" validate:"required"`
	NotChannelAdmin   string `mapstructure:"not_channel_admin"   validate:"required"`
	ChannelAdded      string `mapstructure:"channel_added"       validate:"required"`
	ChannelExists     string `mapstructure:"channel_exists"      validate:"required"`
	ChannelRemoved    string `mapstructure:"channel_removed"     validate:"required"`
	AddChannelPrompt  string `mapstructure:"add_channel_prompt"  validate:"required"`
	AddFilePrompt     string `mapstructure:"add_file_prompt"     validate:"required"`
	BroadcastPrompt   string `mapstructure:"broadcast_prompt"    validate:"required"`
	UsersPlaceholder  string `mapstructure:"users_placeholder"   validate:"required"`
	ManageChannels    string `mapstructure:"manage_channels"     validate:"required"`
}

// Config is the root configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Search    SearchConfig    `mapstructure:"search"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// Load reads configuration in precedence order: defaults, then the config
// file at path (a missing file is not an error), then BOT_* environment
// variables. The result is validated before being returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
