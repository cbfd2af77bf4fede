// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/bot/handlers"
	"github.com/wardenbot/warden/internal/bot/tasks"
	"github.com/wardenbot/warden/internal/cache"
	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/logger"
	"github.com/wardenbot/warden/internal/render"
	"github.com/wardenbot/warden/internal/saucenao"
	"github.com/wardenbot/warden/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// bot, scheduler), handles graceful shutdown, and returns an exit code
// (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "host", cfg.Database.Host, "name", cfg.Database.Name, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit

	groups := cache.New[database.Group](
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(log),
	)
	store := database.NewCachedStore(database.NewStore(db, log), groups)

	renderer, err := render.New()
	if err != nil {
		log.Error("Failed to load message templates", "error", err)
		return 1
	}

	// The handler dependencies need the bot client, and the bot client
	// takes its default handler as a construction option. The fallback
	// indirection breaks that cycle; it is assigned below, before Run
	// starts consuming updates.
	var fallback tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if fallback != nil {
				fallback(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	cfg.Telegram.BotInfo = config.BotInfo{ID: me.ID, Username: me.Username}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		TG:       tg,
		ChatInfo: telegram.NewChatInfo(tg, log, cfg.Cache),
		Renderer: renderer,
		Sauce:    saucenao.NewClient(cfg.SauceNAO, log),
	}
	fallback = handlers.Timeout(hDeps)(handlers.Recover(hDeps)(handlers.NewDefaultHandler(hDeps)))

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := handlers.RegisterHandlers(tg, log, cmdHandlers, handlers.Timeout(hDeps), handlers.Recover(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	telegram.SetBotCommands(ctx, tg, log, handlers.CommandMenu(cmdHandlers))

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Groups: groups,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	// Check if the error is significant (not just context cancellation)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	// Allow logs to flush before exiting gracefully
	log.Info("Waiting briefly before exit...")
	time.Sleep(time.Second)
	return 0
}
