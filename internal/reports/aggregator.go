// Package reports implements the daily comment-report pipeline: aggregation
// of the day's comments into per-owner bundles, Excel/PDF rendering, object
// storage upload, and dispatch of one email notification message per owner.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yizus58/api-zoo/internal/db"
	"github.com/yizus58/api-zoo/internal/types"
)

// CommentSource is the read-side dependency of the Aggregator, satisfied by
// *db.ReportRepository.
type CommentSource interface {
	CommentsBetween(ctx context.Context, start, end time.Time) ([]db.CommentOfDayRow, error)
}

// Aggregation is the output of one aggregation pass. Jobs groups the
// bundles by animal owner; both slices are empty (nil) when no comments
// were posted today, which is a valid terminal state and not an error.
type Aggregation struct {
	Bundles       []types.DailyCommentBundle
	Jobs          []types.UserReportJob
	TotalComments int
}

// Aggregator turns the day's raw comment rows into per-owner report jobs.
type Aggregator struct {
	source CommentSource
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator over the given comment source.
func NewAggregator(source CommentSource, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source: source,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DayRange returns the inclusive UTC calendar-day window containing t:
// [00:00:00.000, 23:59:59.999].
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// AggregateToday builds one DailyCommentBundle per resolvable top-level
// comment posted today and groups the bundles by animal owner.
//
// Replies never produce bundles of their own: for each top-level comment
// only the earliest reply by timestamp is attached. Comments whose
// zone/species/animal/owner chain cannot be resolved are skipped with a
// warning rather than failing the run. Owners are keyed by id; the first
// bundle seen for an owner establishes the job's email.
func (a *Aggregator) AggregateToday(ctx context.Context) (*Aggregation, error) {
	start, end := DayRange(a.now())

	rows, err := a.source.CommentsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying comments of the day: %w", err)
	}

	// Partition into top-level comments and replies. Rows arrive ordered by
	// timestamp then id, so the first reply recorded per parent is the
	// earliest one.
	var topLevel []db.CommentOfDayRow
	firstReply := make(map[string]db.CommentOfDayRow)
	for _, row := range rows {
		if row.ParentID == nil || *row.ParentID == "" {
			topLevel = append(topLevel, row)
			continue
		}
		if _, seen := firstReply[*row.ParentID]; !seen {
			firstReply[*row.ParentID] = row
		}
	}

	agg := &Aggregation{}
	jobIndex := make(map[string]int)

	for _, row := range topLevel {
		if !row.Resolved() {
			a.logger.WarnContext(ctx, "skipping comment with unresolvable animal relation",
				"comment_id", row.ID,
			)
			continue
		}

		bundle := types.DailyCommentBundle{
			Zone:    *row.ZoneName,
			Species: *row.SpeciesName,
			Animal:  *row.AnimalName,
			Comment: types.BundleComment{
				ID:        row.ID,
				Text:      row.Text,
				Author:    row.AuthorEmail,
				Timestamp: row.CreatedAt,
			},
		}

		if reply, ok := firstReply[row.ID]; ok {
			bundle.Reply = &types.BundleReply{
				ID:        reply.ID,
				Text:      reply.Text,
				Author:    reply.AuthorEmail,
				Timestamp: reply.CreatedAt,
				ParentID:  row.ID,
			}
		}

		agg.Bundles = append(agg.Bundles, bundle)

		ownerID := *row.OwnerID
		idx, ok := jobIndex[ownerID]
		if !ok {
			agg.Jobs = append(agg.Jobs, types.UserReportJob{
				UserID: ownerID,
				Email:  *row.OwnerEmail,
			})
			idx = len(agg.Jobs) - 1
			jobIndex[ownerID] = idx
		}
		agg.Jobs[idx].Bundles = append(agg.Jobs[idx].Bundles, bundle)
	}

	agg.TotalComments = len(agg.Bundles)

	a.logger.InfoContext(ctx, "daily aggregation complete",
		"window_start", start.Format(time.RFC3339),
		"window_end", end.Format(time.RFC3339Nano),
		"total_comments", agg.TotalComments,
		"total_users", len(agg.Jobs),
	)

	return agg, nil
}
