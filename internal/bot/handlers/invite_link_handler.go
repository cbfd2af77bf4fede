package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewInviteLinkHandler returns a handler for the /invitelink command.
func NewInviteLinkHandler(deps HandlerDeps) bot.HandlerFunc {
	return inviteLinkHandler{deps}.Handle
}

type inviteLinkHandler struct {
	deps HandlerDeps
}

func (h inviteLinkHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "invitelink")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Invitelink handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	title := update.Message.Chat.Title

	if update.Message.Chat.Type == "private" {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GroupOnly)
		return
	}

	link, err := h.deps.ChatInfo.InviteLink(ctx, chatID)
	if err != nil || link == "" {
		log.WarnContext(ctx, "No invite link available", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, fmt.Sprintf("%s does not have an invite link", title))
		return
	}

	sendText(ctx, h.deps, log, chatID, fmt.Sprintf("Invite link for %s is %s", title, link))
}

// NewRevokeInviteLinkHandler returns a handler for the /revokeinvitelink command.
func NewRevokeInviteLinkHandler(deps HandlerDeps) bot.HandlerFunc {
	return revokeInviteLinkHandler{deps}.Handle
}

type revokeInviteLinkHandler struct {
	deps HandlerDeps
}

func (h revokeInviteLinkHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "revokeinvitelink")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Revokeinvitelink handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	if _, err := h.deps.ChatInfo.RevokeInviteLink(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to revoke invite link", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, h.deps, log, chatID, fmt.Sprintf("Invite link for %s revoked", update.Message.Chat.Title))
}
