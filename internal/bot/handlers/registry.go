package handlers

import (
	"fmt"
	"log/slog"
	"sort"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler represents a command handler with its description and
// middleware. It encapsulates all information needed to register and
// document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands keyed by their slash form. The map guarantees each command name
// resolves to exactly one handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	register := func(pattern, description string, handler tgbot.HandlerFunc, middleware ...tgbot.Middleware) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Description: description,
			Handler:     handler,
			Middleware:  middleware,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	adminOnly := RequireAdmin(deps)
	creatorOnly := RequireCreator(deps)

	register("start", "Read a group's rules in private", NewStartHandler(deps))
	register("ping", "Check whether the bot is alive", NewPingHandler(deps))
	register("rules", "Get the group rules sent to you", NewRulesHandler(deps))
	register("setrules", "Set the group rules (admins)", NewSetRulesHandler(deps), adminOnly)
	register("description", "Get the group description sent to you", NewDescriptionHandler(deps))
	register("setdescription", "Set the group description (creator)", NewSetDescriptionHandler(deps), creatorOnly)
	register("relatedchats", "Get the list of related chats sent to you", NewRelatedChatsHandler(deps))
	register("setrelatedchats", "Set the related chats list (admins)", NewSetRelatedChatsHandler(deps), adminOnly)
	register("invitelink", "Show the group invite link", NewInviteLinkHandler(deps))
	register("revokeinvitelink", "Revoke and replace the invite link (creator)", NewRevokeInviteLinkHandler(deps), creatorOnly)
	register("setwelcome", "Set the welcome message (admins)", NewSetWelcomeHandler(deps), adminOnly)
	register("togglewelcome", "Enable or disable welcomes (admins)", NewToggleWelcomeHandler(deps), adminOnly)
	register("roll", "Roll dice, e.g. /roll 2d6", NewRollHandler(deps))
	register("flip", "Flip a coin", NewFlipHandler(deps))
	register("shake", "Shake the magic 8-ball", NewShakeHandler(deps))
	register("roulette", "Spin the cylinder, pull the trigger", NewRouletteHandler(deps))
	register("warn", "Warn the user you replied to (admins)", NewWarnHandler(deps), adminOnly)
	register("kick", "Kick the user you replied to (admins)", NewKickHandler(deps), adminOnly)
	register("source", "Find the source of the picture you replied to", NewSourceHandler(deps))

	// The help handler reads the finished registry, so it goes in last.
	register("help", "List available commands", NewHelpHandler(deps, handlers))

	return handlers
}

// applyMiddleware wraps a handler with a slice of middleware. Middleware
// are applied in reverse order so the first in the slice is the outermost.
func applyMiddleware(handler tgbot.HandlerFunc, mw []tgbot.Middleware) tgbot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers the command handlers with the bot instance.
// The base middleware wrap every handler outermost, before any per-handler
// middleware carried in the registry entry.
func RegisterHandlers(b *tgbot.Bot, logger *slog.Logger, registeredHandlers map[string]RegisteredHandler, base ...tgbot.Middleware) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	log.Info("Registering Telegram handlers...", "count", len(registeredHandlers))

	for _, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", regHandler.Pattern)
			continue
		}

		mw := make([]tgbot.Middleware, 0, len(base)+len(regHandler.Middleware))
		mw = append(mw, base...)
		mw = append(mw, regHandler.Middleware...)

		finalHandler := applyMiddleware(regHandler.Handler, mw)
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler",
			"pattern", regHandler.Pattern,
			"match_type", regHandler.MatchType,
			"middleware_count", len(mw))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(registeredHandlers))
	return nil
}

// CommandMenu converts the registry into the command list advertised to
// Telegram clients, sorted by command name.
func CommandMenu(handlers map[string]RegisteredHandler) []models.BotCommand {
	commands := make([]models.BotCommand, 0, len(handlers))
	for _, registered := range handlers {
		commands = append(commands, models.BotCommand{
			Command:     registered.Pattern,
			Description: registered.Description,
		})
	}

	sort.Slice(commands, func(i, j int) bool { return commands[i].Command < commands[j].Command })
	return commands
}
