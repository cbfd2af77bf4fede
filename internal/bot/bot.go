// Package bot wires the Telegram update listener and the task scheduler
// into one runnable unit with a shared lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

// Bot runs the Telegram long-poll listener and the background scheduler,
// stopping both together when the context is cancelled or either fails.
type Bot struct {
	logger    *slog.Logger
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot assembles the runnable bot from its long-lived components.
func NewBot(logger *slog.Logger, tgBot *tgbot.Bot, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts the listener and the scheduler and blocks until the context
// is cancelled or a component fails. The Telegram listener retries polling
// failures internally; it returning while the context is still live means
// something unrecoverable happened.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram listener stopped.")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
