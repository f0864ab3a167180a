package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslastreamer/teslastreamer/internal/config"
	"github.com/teslastreamer/teslastreamer/internal/database"
	"github.com/teslastreamer/teslastreamer/internal/geoip"
	"github.com/teslastreamer/teslastreamer/internal/logging"
	"github.com/teslastreamer/teslastreamer/internal/server"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	slog.Info("database migrations applied")

	geo, err := geoip.New(cfg.GeoIPPath)
	if err != nil {
		log.Fatalf("geoip: %v", err)
	}
	defer func() { _ = geo.Close() }()

	srv := server.New(server.Config{
		DB:           db.Pool,
		Pinger:       db,
		GeoIP:        geo,
		BaseURL:      cfg.BaseURL,
		ProxyTimeout: cfg.ProxyTimeout,
	})

	// The relay clears the write deadline on its own responses.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("teslastreamer listening", "port", cfg.Port, "base_url", cfg.BaseURL, "proxy_timeout", cfg.ProxyTimeout.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		// Open relay streams can outlast the grace period.
		slog.Warn("shutdown incomplete", "error", err)
		_ = httpServer.Close()
	}
	slog.Info("shutdown complete")
}
