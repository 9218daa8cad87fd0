package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openterra/reproject-backend/config"
	"github.com/openterra/reproject-backend/internal/bootstrap"
	"github.com/openterra/reproject-backend/internal/logger"
	reprojectservice "github.com/openterra/reproject-backend/internal/reproject/service"
	cronjob "github.com/openterra/reproject-backend/internal/transfer/cron"
	transferservice "github.com/openterra/reproject-backend/internal/transfer/service"
	"github.com/openterra/reproject-backend/internal/transfer/store"
)

const serviceName = "reproject-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	lg := logger.New(serviceName, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	st, err := buildStore(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("building transfer store")
	}

	transfers := transferservice.New(st, lg)
	engine := reprojectservice.NewEngine(cfg.Reproject.ScratchRoot, lg)

	sweeper := cronjob.NewSweeper(transfers, cfg.Transfer.TTL, cfg.Transfer.SweepInterval, lg)
	if err := sweeper.Start(); err != nil {
		lg.Fatal().Err(err).Msg("starting transfer sweeper")
	}
	defer sweeper.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Engine:         engine,
		Transfers:      transfers,
		ScratchRoot:    cfg.Reproject.ScratchRoot,
		MaxUploadBytes: cfg.Reproject.MaxUploadMB << 20,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RatePerMinute:  cfg.Server.RatePerMinute,
		Log:            lg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server")
		}
	}()
	lg.Info().Str("port", cfg.Server.Port).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("server shutdown")
	}
}

func buildStore(cfg *config.Config, lg *logger.Logger) (store.Store, error) {
	if cfg.Transfer.RedisAddr == "" {
		lg.Info().Msg("using in-memory transfer store")
		return store.NewMemory(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Transfer.RedisAddr,
		DB:   cfg.Transfer.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	lg.Info().Str("addr", cfg.Transfer.RedisAddr).Msg("using redis transfer store")
	return store.NewRedis(client), nil
}
