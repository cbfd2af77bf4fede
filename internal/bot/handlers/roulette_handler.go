package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
)

// NewRouletteHandler returns a handler for the /roulette command.
func NewRouletteHandler(deps HandlerDeps) bot.HandlerFunc {
	return rouletteHandler{deps}.Handle
}

type rouletteHandler struct {
	deps HandlerDeps
}

func (h rouletteHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "roulette")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Roulette handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	shooter := update.Message.From

	var hit bool
	group, err := h.deps.Store.UpdateGroup(ctx, chatID, func(g *database.Group) error {
		hit = g.PullTrigger()
		if hit {
			g.Reload()
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to update roulette state", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	if !hit {
		remaining := group.ChambersRemaining()
		plural := "s"
		if remaining == 1 {
			plural = ""
		}
		sendText(ctx, h.deps, log, chatID,
			fmt.Sprintf("• *Click* You're safe. For now.\n%d chamber%s remaining.", remaining, plural))
		return
	}

	sendText(ctx, h.deps, log, chatID, "• *BOOM!* Your brain is now all over the wall behind you.")

	isAdmin, err := h.deps.ChatInfo.IsAdmin(ctx, chatID, shooter.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check shooter permissions", "error", err, "chat_id", chatID, "user_id", shooter.ID)
		return
	}
	if isAdmin {
		// Admins take the bullet but keep their seat.
		return
	}

	// The dearly departed gets a way back in before the kick lands.
	invite, err := h.deps.ChatInfo.InviteLink(ctx, chatID)
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch invite link for roulette loser", "error", err, "chat_id", chatID)
	} else {
		sendPM(ctx, h.deps, log, shooter, chatID, invite)
	}

	if _, err := h.deps.TG.BanChatMember(ctx, &bot.BanChatMemberParams{ChatID: chatID, UserID: shooter.ID}); err != nil {
		log.ErrorContext(ctx, "Failed to kick roulette loser", "error", err, "chat_id", chatID, "user_id", shooter.ID)
		return
	}
	if _, err := h.deps.TG.UnbanChatMember(ctx, &bot.UnbanChatMemberParams{ChatID: chatID, UserID: shooter.ID}); err != nil {
		log.ErrorContext(ctx, "Failed to lift roulette ban", "error", err, "chat_id", chatID, "user_id", shooter.ID)
	}

	log.InfoContext(ctx, "Roulette loser kicked", "chat_id", chatID, "user_id", shooter.ID)
}
