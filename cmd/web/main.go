package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/config"
	"github.com/AdamBeresnev/op-tournament-engine/internal/db"
	"github.com/AdamBeresnev/op-tournament-engine/internal/notify"
	"github.com/AdamBeresnev/op-tournament-engine/internal/service"
	"github.com/AdamBeresnev/op-tournament-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.DatabaseDriver); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	hub := notify.NewHub(cfg.CORSAllowedOrigins)
	notifier := notify.New(cfg.NotifyTimeout, notify.LogObserver{Logger: logger}, hub)
	if cfg.Archive.Enabled() {
		archive, err := notify.NewArchive(context.Background(), notify.ArchiveConfig{
			Bucket:          cfg.Archive.Bucket,
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			logger.Error("failed to configure result archive", "error", err)
			os.Exit(1)
		}
		notifier.Subscribe(archive)
		logger.Info("result archive enabled", "bucket", cfg.Archive.Bucket)
	}

	svc := service.NewTournamentService(store.NewTournamentStore(database), notifier, cfg.CacheTTL)
	router := newRouter(svc, hub, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			_ = server.Close()
		}
	}
	logger.Info("server stopped")
}
