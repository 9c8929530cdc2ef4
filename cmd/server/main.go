package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduvisory/consulting-platform/internal/api"
	"github.com/eduvisory/consulting-platform/internal/core/service"
	"github.com/eduvisory/consulting-platform/internal/infrastructure/config"
	mongodb "github.com/eduvisory/consulting-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/eduvisory/consulting-platform/internal/infrastructure/db/redis"
	"github.com/eduvisory/consulting-platform/internal/infrastructure/queue"
	"github.com/eduvisory/consulting-platform/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "consulting-platform",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		PoolSize: cfg.Mongo.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Indexes ---
	accountRepo := mongodb.NewAccountRepository(db)
	threadRepo := mongodb.NewThreadRepository(db)
	leadRepo := mongodb.NewLeadRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"accounts": accountRepo.EnsureIndexes,
		"threads":  threadRepo.EnsureIndexes,
		"leads":    leadRepo.EnsureIndexes,
		"activity": activityRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Audit pipeline ---
	activityService := service.NewActivityService(activityRepo, log)
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activityService, log)
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(cfg, db, rdb, dispatcher, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
