// Package main is the entry point for the zoo API server.
//
// It loads configuration, opens the database pool and broker connection,
// wires the repositories, services, and HTTP handlers, starts the daily
// report scheduler, and serves until an OS signal arrives. Graceful
// shutdown drains the HTTP server, stops the cron, and closes the broker
// and pool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yizus58/api-zoo/internal/api/handlers"
	"github.com/yizus58/api-zoo/internal/auth"
	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/db"
	"github.com/yizus58/api-zoo/internal/indicators"
	"github.com/yizus58/api-zoo/internal/queue"
	"github.com/yizus58/api-zoo/internal/reports"
	"github.com/yizus58/api-zoo/internal/scheduler"
	"github.com/yizus58/api-zoo/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("zoo API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("opening database pool: %w", err)
	}
	defer pool.Close()

	// Repositories.
	userRepo := db.NewUserRepository(pool)
	zoneRepo := db.NewZoneRepository(pool)
	speciesRepo := db.NewSpeciesRepository(pool)
	animalRepo := db.NewAnimalRepository(pool)
	commentRepo := db.NewCommentRepository(pool)
	reportRepo := db.NewReportRepository(pool)
	indicatorRepo := db.NewIndicatorRepository(pool)

	// Broker connects lazily; the first publish (or the scheduler's first
	// run) provisions the queue topology.
	publisher := queue.NewPublisher(cfg.Broker, queue.AMQPDialer, logger)
	defer publisher.Close()

	storageClient, err := storage.NewClient(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}
	uploader := storage.NewUploader(storageClient, cfg.Storage.Bucket, logger)

	// Report pipeline.
	aggregator := reports.NewAggregator(reportRepo, logger)
	excelRenderer := reports.NewExcelRenderer()
	pdfRenderer := reports.NewPDFRenderer()
	reportService := reports.NewService(
		aggregator,
		[]reports.Renderer{excelRenderer, pdfRenderer},
		uploader,
		publisher,
		cfg.Report.Subject,
		storage.RandomFileName,
		logger,
	)

	authService := auth.NewService(userRepo, cfg.Auth, logger)
	indicatorService := indicators.NewService(indicatorRepo, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Authenticator = authService

	authHandler := handlers.NewAuthHandler(authService, srv.Validator, logger)
	userHandler := handlers.NewUserHandler(userRepo, srv.Validator, logger)
	zoneHandler := handlers.NewZoneHandler(zoneRepo, srv.Validator, logger)
	speciesHandler := handlers.NewSpeciesHandler(speciesRepo, srv.Validator, logger)
	animalHandler := handlers.NewAnimalHandler(animalRepo, srv.Validator, logger)
	commentHandler := handlers.NewCommentHandler(commentRepo, srv.Validator, logger)
	indicatorHandler := handlers.NewIndicatorHandler(indicatorService, logger)
	reportHandler := handlers.NewReportHandler(reportService, publisher, excelRenderer, srv.Validator, logger)

	srv.PublicRouteRegistrars = append(srv.PublicRouteRegistrars, authHandler.RegisterRoutes)
	srv.RouteRegistrars = append(srv.RouteRegistrars,
		func(r chi.Router) { userHandler.RegisterRoutes(r) },
		func(r chi.Router) { zoneHandler.RegisterRoutes(r) },
		func(r chi.Router) { speciesHandler.RegisterRoutes(r) },
		func(r chi.Router) { animalHandler.RegisterRoutes(r) },
		func(r chi.Router) { commentHandler.RegisterRoutes(r) },
		func(r chi.Router) { indicatorHandler.RegisterRoutes(r) },
		func(r chi.Router) { reportHandler.RegisterRoutes(r) },
	)
	srv.MountRoutes()

	var daily *scheduler.Daily
	if cfg.Scheduler.Enabled {
		daily, err = scheduler.NewDaily(cfg.Scheduler, reportService, logger)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		daily.Start()
	}

	err = runHTTPServer(srv, cfg, logger)

	if daily != nil {
		daily.Stop()
	}
	return err
}

// runHTTPServer starts the server with graceful shutdown on SIGINT/SIGTERM.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
