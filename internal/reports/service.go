package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yizus58/api-zoo/internal/types"
)

// maxConcurrentUsers bounds the per-owner fan-out so a day with many
// commented owners cannot exhaust renderer memory.
const maxConcurrentUsers = 4

// ErrRunInProgress is returned when RunDailyTask is invoked while a prior
// run has not finished. Schedulers treat it as a skip, not a failure.
var ErrRunInProgress = types.NewAppError(types.ErrCodeConflictRun, "daily report run already in progress", nil)

// TodayAggregator produces the day's per-owner report jobs.
type TodayAggregator interface {
	AggregateToday(ctx context.Context) (*Aggregation, error)
}

// Renderer turns one owner's job into a downloadable document.
type Renderer interface {
	Render(job types.UserReportJob) ([]byte, error)
	ContentType() string
	FileExtension() string
	Name() string
}

// Uploader stores a rendered document under the given key.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, key string) (string, error)
}

// MessagePublisher dispatches the per-owner notification message, retrying
// with backoff before giving up.
type MessagePublisher interface {
	PublishMessageBackoff(ctx context.Context, msg *types.QueueMessage) error
}

// Service orchestrates the daily pipeline: aggregate, render every document
// per owner, upload, then publish one email message per owner. Failures are
// isolated per user and per stage; only aggregation errors abort the run.
type Service struct {
	aggregator TodayAggregator
	renderers  []Renderer
	uploader   Uploader
	publisher  MessagePublisher
	subject    string
	logger     *slog.Logger

	keyFn   func() string
	now     func() time.Time
	running atomic.Bool
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithKeyFunc overrides storage key generation, used by tests.
func WithKeyFunc(fn func() string) ServiceOption {
	return func(s *Service) { s.keyFn = fn }
}

// WithNowFunc overrides the clock, used by tests.
func WithNowFunc(fn func() time.Time) ServiceOption {
	return func(s *Service) { s.now = fn }
}

// NewService creates the pipeline orchestrator. Renderers run in the order
// given; their outputs become the message's attachments in the same order.
func NewService(
	aggregator TodayAggregator,
	renderers []Renderer,
	uploader Uploader,
	publisher MessagePublisher,
	subject string,
	keyFn func() string,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		aggregator: aggregator,
		renderers:  renderers,
		uploader:   uploader,
		publisher:  publisher,
		subject:    subject,
		logger:     logger,
		keyFn:      keyFn,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunDailyTask executes one full pipeline pass and reports what happened.
// A day with zero comments is a successful no-op. Per-user failures are
// collected into the summary; the returned error is non-nil only for
// fatal conditions (aggregation failure, overlapping run).
func (s *Service) RunDailyTask(ctx context.Context) (*types.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	started := s.now()
	agg, err := s.aggregator.AggregateToday(ctx)
	if err != nil {
		return nil, err
	}

	summary := &types.RunSummary{
		Success:       true,
		TotalUsers:    len(agg.Jobs),
		TotalComments: agg.TotalComments,
	}
	if len(agg.Jobs) == 0 {
		s.logger.InfoContext(ctx, "no comments registered today, nothing to report")
		return summary, nil
	}

	results := make([][]types.RunError, len(agg.Jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for i, job := range agg.Jobs {
		g.Go(func() error {
			results[i] = s.processUser(gctx, job)
			return nil
		})
	}
	// Worker funcs never return errors; per-user failures land in results.
	_ = g.Wait()

	for _, errs := range results {
		summary.Errors = append(summary.Errors, errs...)
	}
	summary.Success = len(summary.Errors) == 0

	s.logger.InfoContext(ctx, "daily report run finished",
		"success", summary.Success,
		"total_users", summary.TotalUsers,
		"total_comments", summary.TotalComments,
		"failed_stages", len(summary.Errors),
		"elapsed", s.now().Sub(started).String(),
	)
	return summary, nil
}

// processUser renders, uploads and publishes for a single owner. A renderer
// or upload failure drops that attachment but the message is still sent
// with whatever artifacts succeeded.
func (s *Service) processUser(ctx context.Context, job types.UserReportJob) []types.RunError {
	var errs []types.RunError
	var artifacts []types.RenderedArtifact
	date := s.now().Format("2006-01-02")

	for _, r := range s.renderers {
		data, err := r.Render(job)
		if err != nil {
			s.logger.ErrorContext(ctx, "report rendering failed",
				"user_id", job.UserID, "renderer", r.Name(), "error", err)
			errs = append(errs, types.RunError{
				UserID: job.UserID,
				Stage:  "render_" + r.Name(),
				Error:  err.Error(),
			})
			continue
		}

		key := s.keyFn()
		if _, err := s.uploader.Upload(ctx, data, r.ContentType(), key); err != nil {
			s.logger.ErrorContext(ctx, "report upload failed",
				"user_id", job.UserID, "renderer", r.Name(), "key", key, "error", err)
			errs = append(errs, types.RunError{
				UserID: job.UserID,
				Stage:  "upload_" + r.Name(),
				Error:  err.Error(),
			})
			continue
		}

		artifacts = append(artifacts, types.RenderedArtifact{
			FileName:   fmt.Sprintf("comentarios-animales-%s%s", date, r.FileExtension()),
			StorageKey: key,
		})
	}

	msg := types.NewEmailMessage(types.EmailPayload{
		UserID:      job.UserID,
		Recipients:  types.Recipients{job.Email},
		Subject:     s.subject,
		HTML:        emailBody(job),
		Attachments: types.NewEmailAttachments(artifacts),
	})
	if err := s.publisher.PublishMessageBackoff(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "notification publish failed",
			"user_id", job.UserID, "error", err)
		errs = append(errs, types.RunError{
			UserID: job.UserID,
			Stage:  "publish",
			Error:  err.Error(),
		})
	}
	return errs
}

func emailBody(job types.UserReportJob) string {
	return fmt.Sprintf(
		"<p>¡Hola %s!</p><p>En este reporte encontraras los animales relacionados a ti que fueron comentados. Hoy se registraron %d comentarios.</p>",
		job.Email, len(job.Bundles))
}

// WorkbookRenderer renders every owner's job into one document, one sheet
// per owner. Satisfied by *ExcelRenderer.
type WorkbookRenderer interface {
	RenderAll(jobs []types.UserReportJob) ([]byte, error)
}

// RenderDaily runs aggregation and renders the whole day into a single
// document covering every affected owner, without uploading or publishing.
// Returns ErrCodeNotFoundReport when no comments were registered today.
func (s *Service) RenderDaily(ctx context.Context, renderer WorkbookRenderer) ([]byte, error) {
	agg, err := s.aggregator.AggregateToday(ctx)
	if err != nil {
		return nil, err
	}
	if len(agg.Jobs) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundReport, "no comments registered today", nil)
	}
	return renderer.RenderAll(agg.Jobs)
}

// RenderForUser runs aggregation and renders a single owner's report on
// demand, without uploading or publishing. Used by the synchronous download
// endpoint. Returns ErrCodeNotFoundReport when the owner has no comments
// today.
func (s *Service) RenderForUser(ctx context.Context, userID string, renderer Renderer) ([]byte, error) {
	agg, err := s.aggregator.AggregateToday(ctx)
	if err != nil {
		return nil, err
	}
	for _, job := range agg.Jobs {
		if job.UserID == userID {
			return renderer.Render(job)
		}
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundReport, "no comments registered today for this user", nil)
}
