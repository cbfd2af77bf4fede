// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"errors"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	apperrors "github.com/wardenbot/warden/internal/errors"
)

// RequireAdmin creates a middleware that only lets group owners and
// administrators through. Everyone else gets a refusal message and the
// wrapped handler never runs.
func RequireAdmin(deps HandlerDeps) tgbot.Middleware {
	return requirePermission(deps, "RequireAdmin", deps.Config.Messages.NotAuthorized,
		func(ctx context.Context, chatID, userID int64) (bool, error) {
			return deps.ChatInfo.IsAdmin(ctx, chatID, userID)
		})
}

// RequireCreator creates a middleware that only lets the group owner through.
func RequireCreator(deps HandlerDeps) tgbot.Middleware {
	return requirePermission(deps, "RequireCreator", deps.Config.Messages.CreatorOnly,
		func(ctx context.Context, chatID, userID int64) (bool, error) {
			return deps.ChatInfo.IsCreator(ctx, chatID, userID)
		})
}

func requirePermission(deps HandlerDeps, name, refusal string, allowed func(ctx context.Context, chatID, userID int64) (bool, error)) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			log := deps.Logger.With("middleware", name)
			chatID := update.Message.Chat.ID
			userID := update.Message.From.ID

			if update.Message.Chat.Type == "private" {
				sendText(ctx, deps, log, chatID, deps.Config.Messages.GroupOnly)
				return
			}

			ok, err := allowed(ctx, chatID, userID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check permissions", "error", err, "chat_id", chatID, "user_id", userID)
				sendText(ctx, deps, log, chatID, deps.Config.Messages.GeneralError)
				return
			}
			if !ok {
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				sendText(ctx, deps, log, chatID, refusal)
				return
			}

			next(ctx, b, update)
		}
	}
}

// Timeout creates a middleware that bounds every handler invocation.
// When the deadline passes, the user is told instead of the update dying
// silently; the abandoned handler keeps its context cancelled.
func Timeout(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			handlerCtx, cancel := context.WithTimeout(ctx, deps.Config.Bot.HandlerTimeout)
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				next(handlerCtx, b, update)
			}()

			select {
			case <-done:
			case <-handlerCtx.Done():
				if !errors.Is(handlerCtx.Err(), context.DeadlineExceeded) {
					return
				}

				timeoutErr := apperrors.NewHandlerTimeoutError("handler exceeded its deadline", handlerCtx.Err())
				deps.Logger.ErrorContext(ctx, "Handler timed out",
					"error", timeoutErr,
					"update_id", update.ID,
					"timeout", deps.Config.Bot.HandlerTimeout)

				if update.Message != nil {
					sendText(ctx, deps, deps.Logger, update.Message.Chat.ID, deps.Config.Messages.HandlerTimeout)
				}
			}
		}
	}
}

// Recover creates a middleware that turns handler panics into an error
// reply so one bad update cannot take down the poller. It must sit inside
// Timeout in the middleware chain: the recovery deferral has to run on the
// goroutine the handler runs on.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					deps.Logger.ErrorContext(ctx, "Handler panicked",
						"panic", r,
						"update_id", update.ID,
						"stack", string(debug.Stack()))

					if update.Message != nil {
						sendText(ctx, deps, deps.Logger, update.Message.Chat.ID, deps.Config.Messages.GeneralError)
					}
				}
			}()

			next(ctx, b, update)
		}
	}
}
