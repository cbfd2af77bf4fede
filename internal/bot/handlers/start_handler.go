package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. Start carries
// the deep link payload from a group's rules button; without a payload it
// stays silent.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	payload := commandArgs(update.Message.Text)
	if payload == "" {
		return
	}

	chatIDText, found := strings.CutPrefix(payload, "rules_")
	if !found {
		log.DebugContext(ctx, "Ignoring unknown start payload", "payload", payload)
		return
	}

	groupChatID, err := strconv.ParseInt(chatIDText, 10, 64)
	if err != nil {
		log.DebugContext(ctx, "Ignoring malformed rules payload", "payload", payload)
		return
	}

	pmChatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling rules deep link", "group_chat_id", groupChatID, "user_id", update.Message.From.ID)

	chat, err := h.deps.ChatInfo.Chat(ctx, groupChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve group for rules deep link", "error", err, "group_chat_id", groupChatID)
		sendText(ctx, h.deps, log, pmChatID, h.deps.Config.Messages.GeneralError)
		return
	}

	notifyCreator(ctx, h.deps, log, chat, update.Message.From)

	group, err := h.deps.Store.GetGroup(ctx, groupChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group", "error", err, "group_chat_id", groupChatID)
		sendText(ctx, h.deps, log, pmChatID, storeFailureText(h.deps, err))
		return
	}

	if group.Rules == "" {
		sendText(ctx, h.deps, log, pmChatID, h.deps.Config.Messages.NoRules)
		return
	}

	card, err := composeRulesCard(ctx, h.deps, chat, group)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compose rules card", "error", err, "group_chat_id", groupChatID)
		sendText(ctx, h.deps, log, pmChatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, h.deps, log, pmChatID, card)
}
