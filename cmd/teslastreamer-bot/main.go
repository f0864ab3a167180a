package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teslastreamer/teslastreamer/internal/bot"
	"github.com/teslastreamer/teslastreamer/internal/config"
	"github.com/teslastreamer/teslastreamer/internal/database"
	"github.com/teslastreamer/teslastreamer/internal/logging"
	"github.com/teslastreamer/teslastreamer/internal/video"
)

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	slog.Info("database migrations applied")

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	api.Debug = cfg.Debug
	slog.Info("telegram: authorized", "account", api.Self.UserName)

	// Messages sent while the bot was down are stale; skip them.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		log.Fatalf("telegram: drop pending updates: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")
		api.StopReceivingUpdates()
	}()

	bot.New(api, video.NewStore(db.Pool), cfg.AppURL).Run(ctx, updates)
	slog.Info("shutdown complete")
}
