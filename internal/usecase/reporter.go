// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/naka-gawa/pr-report/internal/gateway"
	"go.uber.org/zap"
)

// Reporter is the use case for building a pull request report.
// It runs fetch, filter and categorize strictly one after another.
type Reporter struct {
	client         gateway.Client
	fetcher        *PullRequestFetcher
	logger         *zap.Logger
	resolveAuthors bool
}

// ReporterOption customises a Reporter.
type ReporterOption func(*Reporter)

// WithAuthorResolution makes the Reporter look up author display names and
// emails for the pull requests that end up in the report.
func WithAuthorResolution(enabled bool) ReporterOption {
	return func(r *Reporter) {
		r.resolveAuthors = enabled
	}
}

// NewReporter creates a new Reporter instance.
func NewReporter(client gateway.Client, logger *zap.Logger, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		client:  client,
		fetcher: NewPullRequestFetcher(client, logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate builds the report for window. The context is checked between stages;
// a stage that fails ends the run without a partial report.
func (r *Reporter) Generate(ctx context.Context, window domain.Window) (domain.Report, error) {
	r.logger.Info("starting report",
		zap.Stringer("repository", window.Repository),
		zap.Int("days", window.Days),
		zap.Time("cutoff", window.Cutoff),
	)

	pulls, err := r.fetcher.FetchAll(ctx, window.Repository)
	if err != nil {
		return domain.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}

	recent := FilterWindow(pulls, window.Cutoff)
	r.logger.Debug("filtered pull requests by window", zap.Int("fetched", len(pulls)), zap.Int("recent", len(recent)))

	if r.resolveAuthors && len(recent) > 0 {
		recent = r.client.ResolveAuthors(ctx, recent)
		if err := ctx.Err(); err != nil {
			return domain.Report{}, err
		}
	}

	categorized := Categorize(recent)
	report := domain.Report{
		Window:     window,
		Opened:     categorized.Opened,
		Closed:     categorized.Closed,
		Merged:     categorized.Merged,
		MergeStats: mergeStats(categorized.Merged),
	}
	r.logger.Info("report complete",
		zap.Int("opened", len(report.Opened)),
		zap.Int("closed", len(report.Closed)),
		zap.Int("merged", len(report.Merged)),
	)
	return report, nil
}

// mergeStats computes the median and mean time from creation to merge.
func mergeStats(merged []domain.PullRequest) domain.MergeStats {
	seconds := make(stats.Float64Data, 0, len(merged))
	for _, pr := range merged {
		if pr.MergedAt == nil {
			continue
		}
		seconds = append(seconds, pr.MergedAt.Sub(pr.CreatedAt).Seconds())
	}
	median, err := stats.Median(seconds)
	if err != nil {
		return domain.MergeStats{}
	}
	mean, err := stats.Mean(seconds)
	if err != nil {
		return domain.MergeStats{}
	}
	return domain.MergeStats{
		Count:  len(seconds),
		Median: toDuration(median),
		Mean:   toDuration(mean),
	}
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}
