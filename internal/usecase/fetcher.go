package usecase

import (
	"context"

	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/naka-gawa/pr-report/internal/gateway"
	"go.uber.org/zap"
)

// Pipeline stage names used to tag errors.
const (
	StageVerifying = "verifying repository"
	StageFetching  = "fetching pull requests"
)

// PullRequestFetcher retrieves the complete pull request list of a repository.
type PullRequestFetcher struct {
	client gateway.Client
	logger *zap.Logger
}

// NewPullRequestFetcher creates a new PullRequestFetcher instance.
func NewPullRequestFetcher(client gateway.Client, logger *zap.Logger) *PullRequestFetcher {
	return &PullRequestFetcher{
		client: client,
		logger: logger,
	}
}

// FetchAll verifies the repository and then lists all of its pull requests.
// A failed verification stops before any listing call.
func (f *PullRequestFetcher) FetchAll(ctx context.Context, repo domain.Repository) ([]domain.PullRequest, error) {
	metadata, err := f.client.VerifyRepository(ctx, repo)
	if err != nil {
		return nil, &domain.StageError{Stage: StageVerifying, Err: err}
	}
	f.logger.Debug("repository verified",
		zap.String("full_name", metadata.FullName),
		zap.Bool("private", metadata.Private),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pulls, err := f.client.ListPullRequests(ctx, repo)
	if err != nil {
		return nil, &domain.StageError{Stage: StageFetching, Err: err}
	}
	f.logger.Debug("pull requests fetched", zap.Int("count", len(pulls)))
	return pulls, nil
}
