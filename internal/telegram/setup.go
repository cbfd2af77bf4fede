// Package telegram handles bot client construction, handler registration,
// and cached access to chat metadata.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTelegramBot creates the bot client.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8] + "..."
	}
	log.Info("Telegram bot instance created successfully", "token_prefix", prefix)
	return b, nil
}

// SetBotCommands publishes the command menu so clients offer completion.
// A failure here is logged and tolerated; the bot still answers commands.
func SetBotCommands(ctx context.Context, api API, logger *slog.Logger, commands []models.BotCommand) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	if len(commands) == 0 {
		return
	}

	if _, err := api.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		log.Warn("Failed to publish bot command menu", "error", err, "count", len(commands))
		return
	}
	log.Info("Published bot command menu", "count", len(commands))
}
