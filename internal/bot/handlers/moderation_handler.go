package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/telegram"
)

// warnTimestampLayout formats when a warning was issued in receipts.
const warnTimestampLayout = "2006-01-02 15:04:05"

// NewWarnHandler returns a handler for the /warn command.
func NewWarnHandler(deps HandlerDeps) bot.HandlerFunc {
	return warnHandler{deps}.Handle
}

type warnHandler struct {
	deps HandlerDeps
}

func (h warnHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "warn")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Warn handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	reply := update.Message.ReplyToMessage
	if reply == nil || reply.From == nil {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.ReplyRequired)
		return
	}

	target := reply.From
	warning := &database.Warning{
		GroupID:      chatID,
		UserID:       target.ID,
		WarnedBy:     update.Message.From.ID,
		WarnedByName: telegram.DisplayName(update.Message.From),
		Reason:       commandArgs(update.Message.Text),
	}

	if err := h.deps.Store.AddWarning(ctx, warning); err != nil {
		log.ErrorContext(ctx, "Failed to record warning", "error", err, "chat_id", chatID, "user_id", target.ID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Warning recorded",
		"chat_id", chatID,
		"user_id", target.ID,
		"warned_by", update.Message.From.ID)

	warnings, err := h.deps.Store.WarningsForUser(ctx, chatID, target.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list warnings", "error", err, "chat_id", chatID, "user_id", target.ID)
		sendText(ctx, h.deps, log, chatID, storeFailureText(h.deps, err))
		return
	}

	lines := make([]render.WarningLine, len(warnings))
	for i, w := range warnings {
		reason := w.Reason
		if reason == "" {
			reason = "none given"
		}
		lines[i] = render.WarningLine{
			Issued:   w.CreatedAt.Format(warnTimestampLayout),
			Reason:   reason,
			WarnedBy: w.WarnedByName,
		}
	}

	receipt, err := h.deps.Renderer.Render(render.TemplateWarnReceipt, map[string]any{
		"User":     telegram.DisplayName(target),
		"Warnings": lines,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to render warn receipt", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, h.deps, log, chatID, receipt)
}

// NewKickHandler returns a handler for the /kick command.
func NewKickHandler(deps HandlerDeps) bot.HandlerFunc {
	return kickHandler{deps}.Handle
}

type kickHandler struct {
	deps HandlerDeps
}

func (h kickHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "kick")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Kick handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	reply := update.Message.ReplyToMessage
	if reply == nil || reply.From == nil {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.ReplyRequired)
		return
	}

	if _, err := h.deps.TG.BanChatMember(ctx, &bot.BanChatMemberParams{ChatID: chatID, UserID: reply.From.ID}); err != nil {
		log.ErrorContext(ctx, "Failed to kick user", "error", err, "chat_id", chatID, "user_id", reply.From.ID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "User kicked",
		"chat_id", chatID,
		"user_id", reply.From.ID,
		"kicked_by", update.Message.From.ID)
}
