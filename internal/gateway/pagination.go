package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-report/internal/domain"
	"go.uber.org/zap"
)

type pageState int

const (
	stateFetching pageState = iota
	stateWaitingForReset
	stateDone
	stateFailed
)

// listing tracks one walk over the pull request pages.
type listing struct {
	state   pageState
	page    int
	retried bool // the single rate limit retry has been spent
	until   time.Time
	pulls   []domain.PullRequest
	err     error
}

// ListPullRequests retrieves every pull request of the repository, in all states,
// page by page in the order the API returns them.
//
// A rate limit response triggers one wait until the reported reset time followed
// by one retry of the same page. A second rate limit response is returned as is.
func (g *GitHubGateway) ListPullRequests(ctx context.Context, repo domain.Repository) ([]domain.PullRequest, error) {
	l := &listing{state: stateFetching, page: 1}
	for {
		switch l.state {
		case stateFetching:
			pulls, err := g.listPage(ctx, repo, l.page)
			switch {
			case err == nil:
				l.pulls = append(l.pulls, pulls...)
				if len(pulls) < g.perPage {
					l.state = stateDone
					continue
				}
				l.page++
				g.logger.Debug("fetching next page of pull requests", zap.Int("page", l.page))
			case errors.Is(err, domain.ErrRateLimitExceeded) && !l.retried:
				l.retried = true
				l.until = g.resetTime(ctx, err)
				l.state = stateWaitingForReset
			default:
				l.err = err
				l.state = stateFailed
			}

		case stateWaitingForReset:
			wait := l.until.Sub(g.now())
			if wait < 0 {
				wait = 0
			}
			g.logger.Info("rate limit exceeded, waiting for reset",
				zap.Int("page", l.page),
				zap.Duration("wait", wait),
				zap.Time("reset", l.until),
			)
			if err := g.sleep(ctx, wait); err != nil {
				l.err = fmt.Errorf("waiting for rate limit reset: %w", err)
				l.state = stateFailed
				continue
			}
			g.waits++
			l.state = stateFetching

		case stateDone:
			g.logger.Debug("completed fetching pull requests", zap.Int("count", len(l.pulls)), zap.Int("pages", l.page))
			return l.pulls, nil

		case stateFailed:
			return nil, l.err
		}
	}
}

// listPage fetches one page. go-github refuses to send requests while its last
// observed quota is exhausted and the reset lies ahead, so a retry only goes out
// once the wait in ListPullRequests has passed that reset.
func (g *GitHubGateway) listPage(ctx context.Context, repo domain.Repository, page int) ([]domain.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{Page: page, PerPage: g.perPage},
	}
	prs, resp, err := g.restClient.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
	g.observe(resp)
	if err != nil {
		return nil, g.classify(resp, err)
	}
	pulls := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		p, err := toPullRequest(pr)
		if err != nil {
			return nil, err
		}
		pulls = append(pulls, p)
	}
	return pulls, nil
}

// resetTime prefers the reset reported with the error and falls back to the
// rate limit endpoint.
func (g *GitHubGateway) resetTime(ctx context.Context, err error) time.Time {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && !apiErr.ResetAt.IsZero() {
		return apiErr.ResetAt
	}
	return g.CurrentRateLimitStatus(ctx).ResetAt
}
