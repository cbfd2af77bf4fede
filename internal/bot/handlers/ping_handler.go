package handlers

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewPingHandler returns a handler for the /ping command.
func NewPingHandler(deps HandlerDeps) bot.HandlerFunc {
	return pingHandler{deps}.Handle
}

type pingHandler struct {
	deps HandlerDeps
}

func (h pingHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ping")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Ping handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	start := time.Now()
	if err := h.deps.Store.Ping(ctx); err != nil {
		log.WarnContext(ctx, "Store ping failed", "error", err)
	} else {
		log.DebugContext(ctx, "Store ping completed", "duration", time.Since(start))
	}

	// Mostly pong; once in a while the bot plays to win.
	text := "Pong."
	switch roll := rand.IntN(100); {
	case roll >= 95:
		text = "Damn, I missed!"
	case roll >= 90:
		text = "Ha! I win."
	}

	sendText(ctx, h.deps, log, update.Message.Chat.ID, "• "+text)
}
