package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/cache"
	"github.com/oggyb/run-together/internal/config"
	"github.com/oggyb/run-together/internal/db"
	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/server"
	"github.com/oggyb/run-together/internal/service/history"
	"github.com/oggyb/run-together/internal/service/invitation"
	"github.com/oggyb/run-together/internal/service/match"
	"github.com/oggyb/run-together/internal/service/user"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Error("failed to get sql handle", "err", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		match.NewRegistrar(appCtx),
		invitation.NewRegistrar(appCtx),
		user.NewRegistrar(appCtx),
		history.NewRegistrar(appCtx),
	}

	admin := server.NewAdminRouter(map[string]server.HealthCheck{
		"db":    sqlDB.PingContext,
		"redis": redisCache.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, log, registrars...)
	})
	g.Go(func() error {
		return server.StartAdminServer(gctx, cfg, log, admin)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
