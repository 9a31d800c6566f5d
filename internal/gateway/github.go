// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

const (
	// DefaultTimeout bounds connecting to the API and waiting for response headers.
	DefaultTimeout = 5 * time.Second
	// DefaultPerPage is the page size requested from the pull request listing.
	DefaultPerPage = 100
)

// Client defines the behavior of a gateway for fetching pull request data from GitHub.
type Client interface {
	VerifyRepository(ctx context.Context, repo domain.Repository) (domain.RepositoryMetadata, error)
	ListPullRequests(ctx context.Context, repo domain.Repository) ([]domain.PullRequest, error)
	CurrentRateLimitStatus(ctx context.Context) domain.RateLimitStatus
	// ResolveAuthors fills in display names and emails. It never fails; authors
	// that cannot be looked up keep their login only.
	ResolveAuthors(ctx context.Context, pulls []domain.PullRequest) []domain.PullRequest
}

// Options configures NewGitHubGateway.
type Options struct {
	Token string
	// BaseURL points at a GitHub Enterprise Server, e.g. https://ghe.example.com/.
	// Empty means github.com.
	BaseURL string
	Timeout time.Duration
}

// GitHubGateway is the concrete implementation of the Client interface.
// It holds per-run rate limit bookkeeping, so build a fresh one for every run.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger

	perPage int
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	lastRate github.Rate
	waits    int
}

// userQuery looks up the public profile of a pull request author.
type userQuery struct {
	User struct {
		Name  githubv4.String
		Email githubv4.String
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *zap.Logger) (*GitHubGateway, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, timeout: timeout}, nil
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	// A zero single sleep limit makes the waiter hand every secondary rate limit
	// back to go-github, so ListPullRequests decides about the one retry.
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base,
		github_ratelimit.WithSingleSleepLimit(0, func(cbCtx *github_ratelimit.CallbackContext) {
			logger.Info("secondary rate limit detected", zap.Timep("until", cbCtx.SleepUntil))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URL %q: %w", opts.BaseURL, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient(enterpriseGraphQLURL(opts.BaseURL), httpClient)
	}
	return newGitHubGateway(restClient, graphqlClient, logger), nil
}

func newGitHubGateway(restClient *github.Client, graphqlClient *githubv4.Client, logger *zap.Logger) *GitHubGateway {
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
		perPage:       DefaultPerPage,
		now:           time.Now,
		sleep:         sleepContext,
	}
}

// enterpriseGraphQLURL derives the GraphQL endpoint of a GitHub Enterprise Server
// from its REST base URL.
func enterpriseGraphQLURL(baseURL string) string {
	host := strings.TrimSuffix(baseURL, "/")
	host = strings.TrimSuffix(host, "/api/v3")
	return host + "/api/graphql"
}

// VerifyRepository confirms that the repository exists and the token can read it.
func (g *GitHubGateway) VerifyRepository(ctx context.Context, repo domain.Repository) (domain.RepositoryMetadata, error) {
	g.logger.Debug("verifying repository", zap.Stringer("repository", repo))
	repository, resp, err := g.restClient.Repositories.Get(ctx, repo.Owner, repo.Name)
	g.observe(resp)
	if err != nil {
		return domain.RepositoryMetadata{}, g.classify(resp, err)
	}
	return domain.RepositoryMetadata{
		FullName:      repository.GetFullName(),
		Private:       repository.GetPrivate(),
		DefaultBranch: repository.GetDefaultBranch(),
	}, nil
}

// CurrentRateLimitStatus reports the core REST quota. A failed lookup is logged
// and treated as quota remaining, so it never blocks the caller.
func (g *GitHubGateway) CurrentRateLimitStatus(ctx context.Context) domain.RateLimitStatus {
	limits, _, err := g.restClient.RateLimit.Get(ctx)
	if err != nil || limits.GetCore() == nil {
		g.logger.Warn("could not read rate limit status, assuming quota remains", zap.Error(err))
		return domain.RateLimitStatus{Remaining: 1, ResetAt: g.now()}
	}
	core := limits.GetCore()
	return domain.RateLimitStatus{Remaining: core.Remaining, ResetAt: core.Reset.Time}
}

// ResolveAuthors looks up each distinct author once through the GraphQL API.
// Once ctx is done the remaining pull requests are returned unchanged.
func (g *GitHubGateway) ResolveAuthors(ctx context.Context, pulls []domain.PullRequest) []domain.PullRequest {
	type profile struct{ name, email string }
	profiles := make(map[string]profile)

	resolved := make([]domain.PullRequest, 0, len(pulls))
	for i, pr := range pulls {
		if ctx.Err() != nil {
			g.logger.Debug("author resolution stopped", zap.Int("unresolved", len(pulls)-i), zap.Error(ctx.Err()))
			return append(resolved, pulls[i:]...)
		}
		if pr.AuthorLogin == "" || (pr.AuthorName != "" && pr.AuthorEmail != "") {
			resolved = append(resolved, pr)
			continue
		}
		p, seen := profiles[pr.AuthorLogin]
		if !seen {
			var q userQuery
			variables := map[string]interface{}{"login": githubv4.String(pr.AuthorLogin)}
			if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
				g.logger.Warn("could not resolve author", zap.String("login", pr.AuthorLogin), zap.Error(err))
			} else {
				p = profile{name: string(q.User.Name), email: string(q.User.Email)}
			}
			profiles[pr.AuthorLogin] = p
		}
		resolved = append(resolved, pr.WithAuthor(firstNonEmpty(pr.AuthorName, p.name), firstNonEmpty(pr.AuthorEmail, p.email)))
	}
	return resolved
}

// Waits returns how many times this gateway paused for a rate limit reset.
func (g *GitHubGateway) Waits() int {
	return g.waits
}

// ObservedRateLimit is the quota reported by the most recent response.
func (g *GitHubGateway) ObservedRateLimit() domain.RateLimitStatus {
	return domain.RateLimitStatus{Remaining: g.lastRate.Remaining, ResetAt: g.lastRate.Reset.Time}
}

func (g *GitHubGateway) observe(resp *github.Response) {
	if resp == nil {
		return
	}
	g.lastRate = resp.Rate
	g.logger.Debug("rate limit observed",
		zap.Int("remaining", resp.Rate.Remaining),
		zap.Time("reset", resp.Rate.Reset.Time),
	)
}

func toPullRequest(pr *github.PullRequest) (domain.PullRequest, error) {
	if pr.GetNumber() <= 0 {
		return domain.PullRequest{}, &domain.APIError{Kind: domain.ErrMalformedResponse, Message: "pull request without a number"}
	}
	if pr.CreatedAt == nil {
		return domain.PullRequest{}, &domain.APIError{Kind: domain.ErrMalformedResponse, Message: fmt.Sprintf("pull request #%d has no created_at", pr.GetNumber())}
	}
	state := domain.State(pr.GetState())
	if state != domain.StateOpen && state != domain.StateClosed {
		return domain.PullRequest{}, &domain.APIError{Kind: domain.ErrMalformedResponse, Message: fmt.Sprintf("pull request #%d has unknown state %q", pr.GetNumber(), pr.GetState())}
	}

	var labels []string
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}
	return domain.PullRequest{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		URL:         pr.GetHTMLURL(),
		AuthorLogin: pr.GetUser().GetLogin(),
		AuthorName:  pr.GetUser().GetName(),
		AuthorEmail: pr.GetUser().GetEmail(),
		CreatedAt:   pr.GetCreatedAt().UTC(),
		ClosedAt:    utcTime(pr.ClosedAt),
		MergedAt:    utcTime(pr.MergedAt),
		State:       state,
		Labels:      labels,
	}, nil
}

func utcTime(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// deadlineConn bounds every read, so a response body that stalls fails
// instead of hanging the run.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
