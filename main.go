package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Reelrank/config"
	"Reelrank/database"
	"Reelrank/handlers"
	"Reelrank/logger"
	"Reelrank/middleware"
	"Reelrank/server"
	"Reelrank/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("reelrank exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Init(cfg.Environment, cfg.Debug)
	log.Info("starting reelrank", slog.String("env", cfg.Environment), slog.String("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return err
	}

	sessions, err := services.NewSessionStore(cfg)
	if err != nil {
		return err
	}

	deps := handlers.Deps{
		Store:        services.NewMovieStore(pool),
		Metadata:     services.NewTMDBClient(cfg.TMDB, log),
		Sessions:     sessions,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Logger:       log,
		TrustProxy:   cfg.TrustProxy,
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Minute)
		defer limiter.Stop()
		deps.RateLimiter = limiter
	}

	h, err := handlers.New(deps)
	if err != nil {
		return err
	}

	return server.ListenAndRun(ctx, server.DefaultConfig(cfg.ServerPort), h.Routes(), log)
}
