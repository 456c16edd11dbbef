package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"estate_bot/internal/api"
	"estate_bot/internal/config"
	"estate_bot/internal/logging"
	"estate_bot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load environment", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAPI()
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

	router := api.NewRouter(store, api.Options{
		PageSize:      cfg.PageSize,
		PublicBaseURL: cfg.PublicBaseURL,
		MediaRoot:     cfg.MediaRoot,
		CORSOrigins:   cfg.CORSOrigins,
	}, log)
	srv := api.NewServer(cfg.ListenAddr, router, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("api stopped")
}
