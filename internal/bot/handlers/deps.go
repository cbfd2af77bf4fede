package handlers

import (
	"log/slog"

	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/saucenao"
	"github.com/wardenbot/warden/internal/telegram"
)

// HandlerDeps provides dependencies for Telegram command handlers.
// Handlers send through TG rather than the raw bot instance the framework
// passes in, so tests can substitute a fake transport.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	TG       telegram.API
	ChatInfo *telegram.ChatInfo
	Renderer *render.Renderer
	Sauce    saucenao.Client
}
