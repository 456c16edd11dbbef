package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"estate_bot/internal/apiclient"
	"estate_bot/internal/bot"
	"estate_bot/internal/config"
	"estate_bot/internal/logging"
	"estate_bot/internal/notifier"
	"estate_bot/internal/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load environment", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogColor)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()
	store.SetLogger(log)

	client := apiclient.New(http.DefaultClient, cfg.APIBaseURL)

	b, err := bot.New(cfg, client, store, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sweeper := notifier.NewSweeper(store, client, b, cfg.NotifySendDelay, log)
	b.SetSweeper(sweeper)
	sched := notifier.NewScheduler(sweeper, cfg.NotifyInterval, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "api", cfg.APIBaseURL, "notify_interval", cfg.NotifyInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}
