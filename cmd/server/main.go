// Package main is the entry point for the portfolio forecast service. It
// wires the forecast engine client, the interpretation pipeline, the snapshot
// store and the HTTP API, then runs until interrupted.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/clients/engine"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/config"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/database"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/insights"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/scheduler"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/server"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; stderr is all we have.
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("engine_url", cfg.EngineURL).
		Msg("Starting portfolio forecast service")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "forecast",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	repo, err := forecast.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot repository")
	}

	bus := events.NewBus()
	cache := forecast.NewCache(cfg.CacheTTL)
	tracker := forecast.NewProgressTracker(log, bus, cfg.CompleteRevert)
	engineClient := engine.NewClient(cfg.EngineURL, cfg.EngineTimeout, log)
	fallback := forecast.NewFallbackGenerator(log, rand.New(rand.NewSource(time.Now().UnixNano())))

	forecastService := forecast.NewService(
		engineClient,
		forecast.NewInterpreter(log),
		fallback,
		insights.NewEngine(),
		cache,
		repo,
		tracker,
		bus,
		log,
	)

	sched := scheduler.New(log)
	if cfg.SchedulerActive {
		if err := sched.AddJob("@every 1m", scheduler.NewCacheSweepJob(cache, bus, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register cache sweep job")
		}
		if err := sched.AddJob("@hourly", scheduler.NewSnapshotPruneJob(repo, cfg.SnapshotMaxAge, bus, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register snapshot prune job")
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		DB:              db,
		EventBus:        bus,
		ForecastService: forecastService,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
