package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/saucenao"
)

// NewSourceHandler returns a handler for the /source command.
func NewSourceHandler(deps HandlerDeps) bot.HandlerFunc {
	return sourceHandler{deps}.Handle
}

type sourceHandler struct {
	deps HandlerDeps
}

func (h sourceHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "source")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Source handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	if !h.deps.Sauce.Enabled() {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.SourceDisabled)
		return
	}

	reply := update.Message.ReplyToMessage
	if reply == nil {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.ReplyRequired)
		return
	}

	if len(reply.Photo) == 0 {
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.SourcePhotoOnly)
		return
	}

	// Photo renditions come smallest first; search with the largest.
	photo := reply.Photo[len(reply.Photo)-1]
	file, err := h.deps.TG.GetFile(ctx, &bot.GetFileParams{FileID: photo.FileID})
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve photo file", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	result, err := h.deps.Sauce.SearchByURL(ctx, h.deps.TG.FileDownloadLink(file))
	if err != nil {
		if errors.Is(err, saucenao.ErrNoMatch) {
			sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.SourceNoResult)
			return
		}

		var statusErr *saucenao.StatusError
		if errors.As(err, &statusErr) {
			log.WarnContext(ctx, "Source search refused", "status", statusErr.StatusCode, "chat_id", chatID)
			sendText(ctx, h.deps, log, chatID, fmt.Sprintf("SauceNao failed me :( HTTP %d", statusErr.StatusCode))
			return
		}

		log.ErrorContext(ctx, "Source search failed", "error", err, "chat_id", chatID)
		sendText(ctx, h.deps, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, h.deps, log, chatID, fmt.Sprintf("I'm %v%% sure this is the source: %s", result.Similarity, result.URL))
}
