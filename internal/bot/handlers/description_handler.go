package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
)

// NewDescriptionHandler returns a handler for the /description command.
func NewDescriptionHandler(deps HandlerDeps) bot.HandlerFunc {
	return descriptionHandler{deps}.Handle
}

type descriptionHandler struct {
	deps HandlerDeps
}

func (h descriptionHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "description")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Description handler received update with nil message or sender", "update_id", update.ID)
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

	description := groupDescription(ctx, h.deps, chatID, group)
	if description == "" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.NoDescription)
		return
	}

	text, err := h.deps.Renderer.Render(render.TemplateDescription, map[string]any{
		"Title":       update.Message.Chat.Title,
		"Description": description,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to render description", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendPM(ctx, h.deps, log, update.Message.From, chatID, text)
}

// NewSetDescriptionHandler returns a handler for the /setdescription command.
func NewSetDescriptionHandler(deps HandlerDeps) bot.HandlerFunc {
	return setDescriptionHandler{deps}.Handle
}

type setDescriptionHandler struct {
	deps HandlerDeps
}

func (h setDescriptionHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setdescription")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setdescription handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	description := commandArgs(update.Message.Text)

	confirmation := "Description set."
	if description == "" {
		confirmation = "Description reset to default (fallback to Telegram description)."
	}

	if _, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		g.Description = description
		return nil
	}); err != nil {
		log.ErrorContext(ctx, "Failed to save description", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Description updated", "chat_id", chatID, "user_id", update.Message.From.ID)
	sendText(ctx, h.deps, log, chatID, confirmation)
}
