// Package main runs the daily comment-report pipeline once and exits.
//
// It exists for operational reruns (a missed schedule, a backfill after an
// outage) and for running the pipeline out-of-process from the API server.
// The exit code is non-zero when the run fails outright; partial per-user
// failures are logged and reported in the summary but still exit zero.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/db"
	"github.com/yizus58/api-zoo/internal/queue"
	"github.com/yizus58/api-zoo/internal/reports"
	"github.com/yizus58/api-zoo/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("report runner starting", "environment", cfg.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database pool: %w", err)
	}
	defer pool.Close()

	publisher := queue.NewPublisher(cfg.Broker, queue.AMQPDialer, logger)
	defer publisher.Close()

	storageClient, err := storage.NewClient(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}
	uploader := storage.NewUploader(storageClient, cfg.Storage.Bucket, logger)

	service := reports.NewService(
		reports.NewAggregator(db.NewReportRepository(pool), logger),
		[]reports.Renderer{reports.NewExcelRenderer(), reports.NewPDFRenderer()},
		uploader,
		publisher,
		cfg.Report.Subject,
		storage.RandomFileName,
		logger,
	)

	summary, err := service.RunDailyTask(ctx)
	if err != nil {
		return fmt.Errorf("running daily task: %w", err)
	}

	logger.Info("report run complete",
		"success", summary.Success,
		"total_users", summary.TotalUsers,
		"total_comments", summary.TotalComments,
		"failed_stages", len(summary.Errors),
	)
	for _, e := range summary.Errors {
		logger.Warn("stage failure", "user_id", e.UserID, "stage", e.Stage, "error", e.Error)
	}
	return nil
}
