package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/naka-gawa/pr-report/internal/report"
	"github.com/pterm/pterm"
)

// runError remembers which repository a failed run was about.
type runError struct {
	Repository domain.Repository
	Err        error
}

func (e *runError) Error() string { return e.Err.Error() }

func (e *runError) Unwrap() error { return e.Err }

// printError writes what failed and one next step to w.
func printError(w io.Writer, err error) {
	message, hint := describe(err)
	pterm.Error.WithWriter(w).Println(message)
	if hint != "" {
		pterm.Info.WithWriter(w).Println(hint)
	}
}

// describe turns err into a user facing message and a hint.
func describe(err error) (string, string) {
	prefix := "Error: "
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		prefix = "Error " + stageErr.Stage + ": "
	}
	repo := "the repository"
	var runErr *runError
	if errors.As(err, &runErr) {
		repo = "'" + runErr.Repository.String() + "'"
	}

	if errors.Is(err, context.Canceled) {
		return "Interrupted before the report was complete.", ""
	}

	switch domain.KindOf(err) {
	case domain.ErrInvalidRepositoryFormat:
		return prefix + err.Error(),
			"Pass the repository as owner/name, e.g. --repo acme/widgets."
	case domain.ErrMissingConfiguration:
		return prefix + "GitHub token and repository must be provided.",
			"Set them with --token/--repo, PR_REPORT_TOKEN/PR_REPORT_REPO, or a .env file."
	case domain.ErrInvalidConfiguration:
		return prefix + err.Error(),
			"Check the command line flags, the PR_REPORT_* variables and the config file."
	case domain.ErrAuthentication:
		return prefix + "The provided GitHub token is invalid or has expired.",
			"Create a new token and pass it with --token or PR_REPORT_TOKEN."
	case domain.ErrAccessForbidden:
		return prefix + "The GitHub token is not allowed to read " + repo + ".",
			"Grant the token read access to pull requests (repo scope for private repositories)."
	case domain.ErrRepositoryNotFound:
		return prefix + "The specified repository " + repo + " was not found.",
			"Check the owner/name spelling and that the token can see the repository."
	case domain.ErrRateLimitExceeded:
		return prefix + rateLimitMessage(err),
			"Wait for the quota to reset and run again, or use a token with a higher limit."
	case domain.ErrTransport:
		return prefix + "Could not reach the GitHub API: " + detail(err),
			"Check the network connection and --api-url, then run again."
	case domain.ErrMalformedResponse:
		return prefix + "The GitHub API returned a response that could not be read: " + detail(err),
			"Make sure --api-url points at a GitHub API and run again later."
	case domain.ErrUnexpectedAPI:
		return prefix + "The GitHub API returned an unexpected response: " + detail(err),
			"Run again later; check https://www.githubstatus.com if it keeps failing."
	}
	return prefix + err.Error(), ""
}

func rateLimitMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && !apiErr.ResetAt.IsZero() {
		return fmt.Sprintf("Rate limit exceeded. The quota resets at %s.", apiErr.ResetAt.UTC().Format(report.TimeLayout))
	}
	return "Rate limit exceeded."
}

// detail is the message of the underlying API error, without stage prefixes.
func detail(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
