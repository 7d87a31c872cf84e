// Package main is the entry point for the tail-risk service.
// It exposes Monte Carlo VaR, Expected Shortfall and bootstrap confidence
// intervals over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/modules/montecarlo"
	"github.com/aristath/tailrisk/internal/server"
	"github.com/aristath/tailrisk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("default_scenarios", cfg.Simulation.Scenarios).
		Int("default_resamples", cfg.Simulation.Resamples).
		Int("bootstrap_workers", cfg.Simulation.BootstrapWorkers).
		Msg("Starting tail-risk service")

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		Service: montecarlo.NewService(cfg.Simulation, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight simulations get up to 10 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
