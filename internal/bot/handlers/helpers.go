package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
	apperrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/telegram"
)

// commandArgs returns the free text following the command token:
// "/warn spamming links" yields "spamming links". An empty string means
// the command came without arguments.
func commandArgs(text string) string {
	_, args, found := strings.Cut(text, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(args)
}

// sendText sends a plain text message and logs delivery failures.
func sendText(ctx context.Context, deps HandlerDeps, log *slog.Logger, chatID int64, text string) {
	if _, err := deps.TG.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// sendPM delivers text to the user's private chat. When Telegram refuses
// because the user never opened a conversation with the bot, a prompt with
// a deep link is posted to the group instead.
func sendPM(ctx context.Context, deps HandlerDeps, log *slog.Logger, user *models.User, groupChatID int64, text string) {
	_, err := deps.TG.SendMessage(ctx, &bot.SendMessageParams{ChatID: user.ID, Text: text})
	if err == nil {
		return
	}

	if !errors.Is(err, bot.ErrorForbidden) {
		log.ErrorContext(ctx, "Failed to send private message", "error", err, "user_id", user.ID)
		return
	}

	log.DebugContext(ctx, "User has not started the bot, posting deep link", "user_id", user.ID, "chat_id", groupChatID)
	prompt := render.ExpandPlaceholders(deps.Config.Messages.PressStart, map[string]string{
		"user": telegram.DisplayName(user),
		"link": rulesDeepLink(deps, groupChatID),
	})
	sendText(ctx, deps, log, groupChatID, prompt)
}

// rulesDeepLink builds the t.me link that opens a private chat with the
// bot and requests the group's rules.
func rulesDeepLink(deps HandlerDeps, groupChatID int64) string {
	return telegram.DeepLink(deps.Config.Telegram.BotInfo.Username, "rules_"+strconv.FormatInt(groupChatID, 10))
}

// groupDescription prefers the stored override and falls back to the chat
// description Telegram reports.
func groupDescription(ctx context.Context, deps HandlerDeps, chatID int64, group *database.Group) string {
	if group.Description != "" {
		return group.Description
	}

	chat, err := deps.ChatInfo.Chat(ctx, chatID)
	if err != nil {
		return ""
	}
	return chat.Description
}

// storeFailureText picks the user-visible text for a failed store call.
func storeFailureText(deps HandlerDeps, err error) string {
	if apperrors.Code(err) == apperrors.CodeStoreUnavailable {
		return deps.Config.Messages.StoreDegraded
	}
	return deps.Config.Messages.GeneralError
}
