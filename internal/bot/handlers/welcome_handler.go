package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
)

// NewSetWelcomeHandler returns a handler for the /setwelcome command.
func NewSetWelcomeHandler(deps HandlerDeps) bot.HandlerFunc {
	return setWelcomeHandler{deps}.Handle
}

type setWelcomeHandler struct {
	deps HandlerDeps
}

func (h setWelcomeHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setwelcome")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setwelcome handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	welcome := commandArgs(update.Message.Text)

	confirmation := "Welcome message set."
	if welcome == "" {
		confirmation = "Welcome message reset to default."
	}

	if _, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		g.WelcomeMessage = welcome
		return nil
	}); err != nil {
		log.ErrorContext(ctx, "Failed to save welcome message", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Welcome message updated", "chat_id", chatID, "user_id", update.Message.From.ID)
	sendText(ctx, h.deps, log, chatID, confirmation)
}

// NewToggleWelcomeHandler returns a handler for the /togglewelcome command.
func NewToggleWelcomeHandler(deps HandlerDeps) bot.HandlerFunc {
	return toggleWelcomeHandler{deps}.Handle
}

type toggleWelcomeHandler struct {
	deps HandlerDeps
}

func (h toggleWelcomeHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "togglewelcome")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Togglewelcome handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	enabled, err := strconv.ParseBool(args)
	if args == "" || err != nil {
		group, getErr := h.deps.Store.GetGroup(ctx, chatID)
		if getErr != nil {
			log.ErrorContext(ctx, "Failed to load group", "error", getErr, "chat_id", chatID)
			sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, getErr))
			return
		}
		sendText(ctx, h.deps, log, chatID,
			fmt.Sprintf("Current status: %t. Please specify true or false to change.", group.WelcomeEnabled))
		return
	}

	if _, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		g.WelcomeEnabled = enabled
		return nil
	}); err != nil {
		log.ErrorContext(ctx, "Failed to save welcome toggle", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Welcome toggled", "chat_id", chatID, "enabled", enabled)
	sendText(ctx, h.deps, log, chatID, fmt.Sprintf("Welcome: %t", enabled))
}
