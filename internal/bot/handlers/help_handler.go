package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/render"
)

// NewHelpHandler returns a handler for the /help command. It renders the
// command list from the registry it is part of.
func NewHelpHandler(deps HandlerDeps, registry map[string]RegisteredHandler) bot.HandlerFunc {
	return helpHandler{deps: deps, registry: registry}.Handle
}

type helpHandler struct {
	deps     HandlerDeps
	registry map[string]RegisteredHandler
}

func (h helpHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	menu := CommandMenu(h.registry)
	commands := make([]render.CommandHelp, len(menu))
	for i, command := range menu {
		commands[i] = render.CommandHelp{Command: command.Command, Description: command.Description}
	}

	text, err := h.deps.Renderer.Render(render.TemplateHelp, map[string]any{"Commands": commands})
	if err != nil {
		log.ErrorContext(ctx, "Failed to render help", "error", err)
		sendText(ctx, h.deps, log, update.Message.Chat.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, h.deps, log, update.Message.Chat.ID, text)
}
