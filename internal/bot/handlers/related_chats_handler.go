package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
)

// NewRelatedChatsHandler returns a handler for the /relatedchats command.
func NewRelatedChatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return relatedChatsHandler{deps}.Handle
}

type relatedChatsHandler struct {
	deps HandlerDeps
}

func (h relatedChatsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "relatedchats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Relatedchats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	if update.Message.Chat.Type == "private" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GroupOnly)
		return
	}

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	if group.RelatedChats == "" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.NoRelatedChats)
		return
	}

	text, err := h.deps.Renderer.Render(render.TemplateRelatedChats, map[string]any{
		"Title":        update.Message.Chat.Title,
		"RelatedChats": group.RelatedChats,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to render related chats", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendPM(ctx, h.deps, log, update.Message.From, chatID, text)
}

// NewSetRelatedChatsHandler returns a handler for the /setrelatedchats command.
func NewSetRelatedChatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return setRelatedChatsHandler{deps}.Handle
}

type setRelatedChatsHandler struct {
	deps HandlerDeps
}

func (h setRelatedChatsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setrelatedchats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setrelatedchats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	relatedChats := commandArgs(update.Message.Text)

	confirmation := "Related chats set."
	if relatedChats == "" {
		confirmation = "Related chats cleared."
	}

	if _, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		g.RelatedChats = relatedChats
		return nil
	}); err != nil {
		log.ErrorContext(ctx, "Failed to save related chats", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Related chats updated", "chat_id", chatID, "user_id", update.Message.From.ID)
	sendText(ctx, h.deps, log, chatID, confirmation)
}
