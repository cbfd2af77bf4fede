package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/wardenbot/warden/internal/errors"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The config file at configPath (optional)
// 3. BOT_* environment variables (highest precedence)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; environment variables alone are a
	// valid production setup.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, apperrors.NewConfigError("failed to read config file", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Secrets default to empty so their BOT_* variables bind; validation
	// rejects the required ones when still unset.
	v.SetDefault("telegram.token", "")

	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.name", DefaultDBName)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	v.SetDefault("cache.max_entries", DefaultCacheMaxEntries)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.member_ttl", DefaultCacheMemberTTL)
	v.SetDefault("cache.chat_ttl", DefaultCacheChatTTL)

	v.SetDefault("bot.handler_timeout", DefaultBotHandlerTimeout)
	v.SetDefault("bot.warn_retention", DefaultBotWarnRetention)

	v.SetDefault("saucenao.api_key", "")
	v.SetDefault("saucenao.url", DefaultSauceNAOURL)
	v.SetDefault("saucenao.min_similarity", DefaultSauceNAOMinSimilarity)
	v.SetDefault("saucenao.timeout", DefaultSauceNAOTimeout)

	v.SetDefault("scheduler.tasks", DefaultTasks)

	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.creator_only", DefaultMessages.CreatorOnly)
	v.SetDefault("messages.not_understood", DefaultMessages.NotUnderstood)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.store_degraded", DefaultMessages.StoreDegraded)
	v.SetDefault("messages.handler_timeout", DefaultMessages.HandlerTimeout)
	v.SetDefault("messages.group_only", DefaultMessages.GroupOnly)
	v.SetDefault("messages.reply_required", DefaultMessages.ReplyRequired)
	v.SetDefault("messages.press_start", DefaultMessages.PressStart)
	v.SetDefault("messages.default_welcome", DefaultMessages.DefaultWelcome)
	v.SetDefault("messages.no_rules", DefaultMessages.NoRules)
	v.SetDefault("messages.no_description", DefaultMessages.NoDescription)
	v.SetDefault("messages.no_related_chats", DefaultMessages.NoRelatedChats)
	v.SetDefault("messages.source_disabled", DefaultMessages.SourceDisabled)
	v.SetDefault("messages.source_no_result", DefaultMessages.SourceNoResult)
	v.SetDefault("messages.source_photo_only", DefaultMessages.SourcePhotoOnly)
}
