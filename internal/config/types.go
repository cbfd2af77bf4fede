// Package config manages application configuration from environment variables,
// an optional config file, and default values.
package config

import (
	"time"
)

// Config defines the application configuration. Every value can be set via
// environment variables prefixed with BOT_ (e.g. BOT_TELEGRAM_TOKEN,
// BOT_DATABASE_HOST) or through an optional config.yaml, with environment
// variables taking precedence. Configuration is read once at startup and is
// immutable afterwards.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Bot       BotConfig       `mapstructure:"bot"`
	SauceNAO  SauceNAOConfig  `mapstructure:"saucenao"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// BotInfo holds the bot's own Telegram identity, resolved at startup via
// GetMe and stored here for runtime use (deep links, mention stripping).
type BotInfo struct {
	ID       int64
	Username string
}

// TelegramConfig holds Telegram API credentials and runtime identity.
type TelegramConfig struct {
	Token   string  `mapstructure:"token" validate:"required"`
	BotInfo BotInfo `mapstructure:"-"`
}

// DatabaseConfig holds the MySQL endpoint and connection pool settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"              validate:"required"`
	Port            int           `mapstructure:"port"              validate:"required,min=1,max=65535"`
	Name            string        `mapstructure:"name"              validate:"required"`
	User            string        `mapstructure:"user"              validate:"required"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=0"`
}

// CacheConfig bounds the in-memory cache and sets entry lifetimes.
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries" validate:"required,min=1"`
	TTL        time.Duration `mapstructure:"ttl"         validate:"required,min=1s"`
	MemberTTL  time.Duration `mapstructure:"member_ttl"  validate:"required,min=1s"`
	ChatTTL    time.Duration `mapstructure:"chat_ttl"    validate:"required,min=1s"`
}

// BotConfig holds behavior knobs for command handling.
type BotConfig struct {
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"required,min=1s,max=10m"`
	WarnRetention  time.Duration `mapstructure:"warn_retention"  validate:"required,min=24h"`
}

// SauceNAOConfig configures the reverse image search client.
// An empty APIKey disables the /source command.
type SauceNAOConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	URL           string        `mapstructure:"url"            validate:"required,url"`
	MinSimilarity float64       `mapstructure:"min_similarity" validate:"min=0,max=100"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"required,min=1s,max=5m"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named background task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds the user-visible response strings. Operators can
// override any of them; defaults are provided for all. DefaultWelcome and
// PressStart support {placeholder} expansion.
type MessagesConfig struct {
	NotAuthorized   string `mapstructure:"not_authorized"    validate:"required"`
	CreatorOnly     string `mapstructure:"creator_only"      validate:"required"`
	NotUnderstood   string `mapstructure:"not_understood"    validate:"required"`
	GeneralError    string `mapstructure:"general_error"     validate:"required"`
	StoreDegraded   string `mapstructure:"store_degraded"    validate:"required"`
	HandlerTimeout  string `mapstructure:"handler_timeout"   validate:"required"`
	GroupOnly       string `mapstructure:"group_only"        validate:"required"`
	ReplyRequired   string `mapstructure:"reply_required"    validate:"required"`
	PressStart      string `mapstructure:"press_start"       validate:"required"`
	DefaultWelcome  string `mapstructure:"default_welcome"   validate:"required"`
	NoRules         string `mapstructure:"no_rules"          validate:"required"`
	NoDescription   string `mapstructure:"no_description"    validate:"required"`
	NoRelatedChats  string `mapstructure:"no_related_chats"  validate:"required"`
	SourceDisabled  string `mapstructure:"source_disabled"   validate:"required"`
	SourceNoResult  string `mapstructure:"source_no_result"  validate:"required"`
	SourcePhotoOnly string `mapstructure:"source_photo_only" validate:"required"`
}
