// Package main is the entry point for the Ballast index valuation service.
// The service turns stored asset return histories into risk-budgeted index
// weights scaled to a target volatility, snapshots every run, writes weight
// reports, and ships nightly backups to S3-compatible storage.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize logging
//  3. Wire dependencies (databases, repositories, services, jobs)
//  4. Register and start the scheduler
//  5. Start the rates feed client (if enabled)
//  6. Start the HTTP server
//  7. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/di"
	"github.com/aristath/ballast/internal/scheduler"
	"github.com/aristath/ballast/internal/server"
	"github.com/aristath/ballast/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
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

	log.Info().Msg("Starting Ballast")

	// Wire all dependencies: databases, repositories, services and jobs
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	// Register jobs. The scheduler only starts when enabled, but jobs
	// are always registered so manual triggers via the API work.
	sched := scheduler.New(log)

	if err := sched.AddJob(cfg.ValuationSchedule, container.ValuationJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register valuation job")
	}
	if err := sched.AddJob(cfg.MaintenanceSchedule, container.MaintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	var backupJob scheduler.Job
	if container.BackupJob != nil {
		backupJob = container.BackupJob
		if err := sched.AddJob(cfg.BackupSchedule, container.BackupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	srv.SetJobs(sched, container.ValuationJob, backupJob, container.MaintenanceJob)

	if cfg.SchedulerEnabled {
		sched.Start()
	} else {
		log.Warn().Msg("Scheduler disabled, jobs run only on manual trigger")
	}

	// Start the rates feed client if configured
	if container.FeedClient != nil {
		if err := container.FeedClient.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start rates feed client, continuing without it")
		}
	}

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the feed client first so no new fixings arrive mid-shutdown
	if container.FeedClient != nil {
		if err := container.FeedClient.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping rates feed client")
		}
	}

	// Stop the scheduler and wait for running jobs to finish
	if cfg.SchedulerEnabled {
		sched.Stop()
	}

	// Graceful HTTP shutdown with a deadline for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
