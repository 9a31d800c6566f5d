package usecase

import (
	"context"

	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/stretchr/testify/mock"
)

// mockClient is a mock implementation of the gateway.Client interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) VerifyRepository(ctx context.Context, repo domain.Repository) (domain.RepositoryMetadata, error) {
	args := m.Called(ctx, repo)
	return args.Get(0).(domain.RepositoryMetadata), args.Error(1)
}

func (m *mockClient) ListPullRequests(ctx context.Context, repo domain.Repository) ([]domain.PullRequest, error) {
	args := m.Called(ctx, repo)
	// The returned slice is nil when an error is simulated.
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PullRequest), args.Error(1)
}

func (m *mockClient) CurrentRateLimitStatus(ctx context.Context) domain.RateLimitStatus {
	args := m.Called(ctx)
	return args.Get(0).(domain.RateLimitStatus)
}

func (m *mockClient) ResolveAuthors(ctx context.Context, pulls []domain.PullRequest) []domain.PullRequest {
	args := m.Called(ctx, pulls)
	return args.Get(0).([]domain.PullRequest)
}
