// Package scheduler triggers the daily report task on a cron schedule
// evaluated in the zoo's local timezone.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/reports"
	"github.com/yizus58/api-zoo/internal/types"
)

// TaskRunner executes one pass of the daily report pipeline.
type TaskRunner interface {
	RunDailyTask(ctx context.Context) (*types.RunSummary, error)
}

// Daily owns the cron instance and fires the report task on schedule. An
// invocation that lands while the previous run is still going is skipped,
// not queued.
type Daily struct {
	cron   *cron.Cron
	task   TaskRunner
	logger *slog.Logger
	spec   string
}

// NewDaily builds the scheduler from config. The cron spec is validated at
// construction so a bad schedule fails startup instead of silently never
// firing.
func NewDaily(cfg config.SchedulerConfig, task TaskRunner, logger *slog.Logger) (*Daily, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading scheduler timezone %q: %w", cfg.Timezone, err)
	}

	d := &Daily{
		cron:   cron.New(cron.WithLocation(loc)),
		task:   task,
		logger: logger,
		spec:   cfg.Spec,
	}
	if _, err := d.cron.AddFunc(cfg.Spec, d.runOnce); err != nil {
		return nil, fmt.Errorf("registering cron spec %q: %w", cfg.Spec, err)
	}
	return d, nil
}

// Start begins firing scheduled runs. Returns immediately.
func (d *Daily) Start() {
	d.cron.Start()
	d.logger.Info("daily report scheduler started", "spec", d.spec)
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (d *Daily) Stop() {
	<-d.cron.Stop().Done()
	d.logger.Info("daily report scheduler stopped")
}

func (d *Daily) runOnce() {
	ctx := context.Background()
	summary, err := d.task.RunDailyTask(ctx)
	if err != nil {
		if errors.Is(err, reports.ErrRunInProgress) {
			d.logger.Warn("previous daily run still in progress, skipping this trigger")
			return
		}
		d.logger.Error("daily report run failed", "error", err)
		return
	}
	d.logger.Info("scheduled daily report run complete",
		"success", summary.Success,
		"total_users", summary.TotalUsers,
		"total_comments", summary.TotalComments,
		"failed_stages", len(summary.Errors),
	)
}
