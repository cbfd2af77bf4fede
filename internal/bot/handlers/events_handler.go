package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	apperrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/telegram"
)

// NewDefaultHandler returns the fallback handler for updates no command
// matched. It welcomes newcomers and answers unknown commands; everything
// else is ignored.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if len(update.Message.NewChatMembers) > 0 {
		h.welcome(ctx, update)
		return
	}

	if strings.HasPrefix(update.Message.Text, "/") {
		h.unknownCommand(ctx, update)
	}
}

func (h defaultHandler) unknownCommand(ctx context.Context, update *models.Update) {
	log := h.deps.Logger.With("handler", "default")

	command, _, _ := strings.Cut(update.Message.Text, " ")
	if name, target, found := strings.Cut(command, "@"); found {
		// Commands addressed to other bots are not ours to answer.
		if !strings.EqualFold(target, h.deps.Config.Telegram.BotInfo.Username) {
			return
		}
		command = name
	}

	inputErr := apperrors.NewUnrecognizedInputError(fmt.Sprintf("no handler accepts %q", command))
	log.DebugContext(ctx, "Unrecognized command", "error", inputErr, "chat_id", update.Message.Chat.ID)

	sendText(ctx, h.deps, log, update.Message.Chat.ID, h.deps.Config.Messages.NotUnderstood)
}

func (h defaultHandler) welcome(ctx context.Context, update *models.Update) {
	log := h.deps.Logger.With("handler", "welcome")
	chatID := update.Message.Chat.ID

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group for welcome", "error", err, "chat_id", chatID)
		return
	}
	if !group.WelcomeEnabled {
		return
	}

	var names []string
	for i := range update.Message.NewChatMembers {
		member := &update.Message.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		names = append(names, telegram.DisplayName(member))
	}
	if len(names) == 0 {
		return
	}

	mods, err := h.deps.ChatInfo.ModList(ctx, chatID)
	if err != nil {
		log.WarnContext(ctx, "Failed to list mods for welcome", "error", err, "chat_id", chatID)
	}

	invite, err := h.deps.ChatInfo.InviteLink(ctx, chatID)
	if err != nil {
		log.DebugContext(ctx, "No invite link for welcome", "error", err, "chat_id", chatID)
	}

	deepLink := rulesDeepLink(h.deps, chatID)

	text := group.WelcomeMessage
	if text == "" {
		text = h.deps.Config.Messages.DefaultWelcome
	}
	text = render.ExpandPlaceholders(text, map[string]string{
		"usernames":        strings.Join(names, ", "),
		"title":            update.Message.Chat.Title,
		"invite_link":      invite,
		"mods":             strings.Join(mods, ", "),
		"description":      groupDescription(ctx, h.deps, chatID, group),
		"rules_with_start": deepLink,
	})

	_, err = h.deps.TG.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "Click and press START to read the rules", URL: deepLink},
			}},
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome", "error", err, "chat_id", chatID)
		return
	}

	log.InfoContext(ctx, "Welcomed new members", "chat_id", chatID, "count", len(names))
}
