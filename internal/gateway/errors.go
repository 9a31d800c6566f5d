package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-report/internal/domain"
)

// classify maps a go-github error onto the domain error kinds. resp may be nil.
func (g *GitHubGateway) classify(resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.APIError{
			Kind:       domain.ErrRateLimitExceeded,
			StatusCode: statusCode(rateErr.Response),
			Message:    rateErr.Message,
			ResetAt:    rateErr.Rate.Reset.Time,
			Err:        err,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var resetAt time.Time
		if retryAfter := abuseErr.GetRetryAfter(); retryAfter > 0 {
			resetAt = g.now().Add(retryAfter)
		}
		return &domain.APIError{
			Kind:       domain.ErrRateLimitExceeded,
			StatusCode: statusCode(abuseErr.Response),
			Message:    abuseErr.Message,
			ResetAt:    resetAt,
			Err:        err,
		}
	}

	var twoFactorErr *github.TwoFactorAuthError
	if errors.As(err, &twoFactorErr) {
		return &domain.APIError{
			Kind:       domain.ErrAuthentication,
			StatusCode: http.StatusUnauthorized,
			Message:    twoFactorErr.Message,
			Err:        err,
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := statusCode(respErr.Response)
		apiErr := &domain.APIError{Kind: domain.ErrUnexpectedAPI, StatusCode: status, Message: respErr.Message, Err: err}
		switch {
		case status == http.StatusTooManyRequests, status == http.StatusForbidden && isSecondaryLimit(respErr):
			apiErr.Kind = domain.ErrRateLimitExceeded
			apiErr.ResetAt = g.retryAt(respErr.Response)
		case status == http.StatusUnauthorized:
			apiErr.Kind = domain.ErrAuthentication
		case status == http.StatusForbidden:
			apiErr.Kind = domain.ErrAccessForbidden
		case status == http.StatusNotFound:
			apiErr.Kind = domain.ErrRepositoryNotFound
		}
		return apiErr
	}

	if isDecodeError(err) {
		return &domain.APIError{Kind: domain.ErrMalformedResponse, StatusCode: responseStatus(resp), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.APIError{Kind: domain.ErrTransport, Err: err}
	}
	// Anything else that fails after a complete success status is a body we could not read.
	if status := responseStatus(resp); status >= 200 && status < 300 {
		return &domain.APIError{Kind: domain.ErrMalformedResponse, StatusCode: status, Err: err}
	}
	return &domain.APIError{Kind: domain.ErrTransport, Err: err}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &timeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// isSecondaryLimit recognises secondary rate limits that go-github reports as plain 403s.
func isSecondaryLimit(respErr *github.ErrorResponse) bool {
	body := github_ratelimit.SecondaryRateLimitBody{Message: respErr.Message, DocumentURL: respErr.DocumentationURL}
	return body.IsSecondaryRateLimit()
}

// retryAt reads when a rate limited request may be sent again. The zero time
// means the response did not say.
func (g *GitHubGateway) retryAt(resp *http.Response) time.Time {
	if resp == nil {
		return time.Time{}
	}
	if seconds, err := strconv.Atoi(resp.Header.Get(github_ratelimit.HeaderRetryAfter)); err == nil && seconds > 0 {
		return g.now().Add(time.Duration(seconds) * time.Second)
	}
	if epoch, err := strconv.ParseInt(resp.Header.Get(github_ratelimit.HeaderXRateLimitReset), 10, 64); err == nil && epoch > 0 {
		return time.Unix(epoch, 0)
	}
	return time.Time{}
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func responseStatus(resp *github.Response) int {
	if resp == nil {
		return 0
	}
	return statusCode(resp.Response)
}
