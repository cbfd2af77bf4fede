package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/telegram"
)

// composeRulesCard renders the full rules card for a chat: title,
// description, rules, mod roster, and related chats.
func composeRulesCard(ctx context.Context, deps HandlerDeps, chat *models.ChatFullInfo, group *database.Group) (string, error) {
	mods, err := deps.ChatInfo.ModList(ctx, chat.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list mods for chat %d: %w", chat.ID, err)
	}

	description := group.Description
	if description == "" {
		description = chat.Description
	}

	return deps.Renderer.Render(render.TemplateRules, map[string]any{
		"Title":        chat.Title,
		"Description":  description,
		"Rules":        group.Rules,
		"Mods":         strings.Join(mods, "\n"),
		"RelatedChats": group.RelatedChats,
	})
}

// notifyCreator tells the group owner someone asked for the rules. Delivery
// is best effort; owners who never started the bot just miss out.
func notifyCreator(ctx context.Context, deps HandlerDeps, log *slog.Logger, chat *models.ChatFullInfo, requester *models.User) {
	creator, err := deps.ChatInfo.Creator(ctx, chat.ID)
	if err != nil || creator == nil {
		log.DebugContext(ctx, "No reachable group creator to notify", "chat_id", chat.ID, "error", err)
		return
	}
	if creator.ID == requester.ID {
		return
	}

	text := fmt.Sprintf("%s just requested the rules for %s.", telegram.DisplayName(requester), chat.Title)
	if _, err := deps.TG.SendMessage(ctx, &bot.SendMessageParams{ChatID: creator.ID, Text: text}); err != nil {
		log.DebugContext(ctx, "Failed to notify creator", "error", err, "chat_id", chat.ID)
	}
}

// NewRulesHandler returns a handler for the /rules command.
func NewRulesHandler(deps HandlerDeps) bot.HandlerFunc {
	return rulesHandler{deps}.Handle
}

type rulesHandler struct {
	deps HandlerDeps
}

func (h rulesHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rules")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Rules handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	requester := update.Message.From

	if update.Message.Chat.Type == "private" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GroupOnly)
		return
	}

	chat, err := h.deps.ChatInfo.Chat(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch chat info", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	notifyCreator(ctx, h.deps, log, chat, requester)

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	if group.Rules == "" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.NoRules)
		return
	}

	card, err := composeRulesCard(ctx, h.deps, chat, group)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compose rules card", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendPM(ctx, h.deps, log, requester, chatID, card)
}

// NewSetRulesHandler returns a handler for the /setrules command.
func NewSetRulesHandler(deps HandlerDeps) bot.HandlerFunc {
	return setRulesHandler{deps}.Handle
}

type setRulesHandler struct {
	deps HandlerDeps
}

func (h setRulesHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setrules")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setrules handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	rules := commandArgs(update.Message.Text)

	confirmation := "Rules set."
	if rules == "" {
		confirmation = "Rules removed."
	}

	if _, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		g.Rules = rules
		return nil
	}); err != nil {
		log.ErrorContext(ctx, "Failed to save rules", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Rules updated", "chat_id", chatID, "user_id", update.Message.From.ID)
	sendText(ctx, h.deps, log, chatID, confirmation)
}
