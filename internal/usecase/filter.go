package usecase

import (
	"time"

	"github.com/naka-gawa/pr-report/internal/domain"
)

// FilterWindow keeps the pull requests created at or after cutoff, in input order.
func FilterWindow(pulls []domain.PullRequest, cutoff time.Time) []domain.PullRequest {
	cutoff = cutoff.UTC()
	recent := make([]domain.PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		if !pr.CreatedAt.UTC().Before(cutoff) {
			recent = append(recent, pr)
		}
	}
	return recent
}

// Categorized partitions pull requests by lifecycle category.
type Categorized struct {
	Opened []domain.PullRequest
	Closed []domain.PullRequest
	Merged []domain.PullRequest
}

// Categorize assigns every pull request to exactly one category in a single pass.
func Categorize(pulls []domain.PullRequest) Categorized {
	var c Categorized
	for _, pr := range pulls {
		switch pr.Category() {
		case domain.Merged:
			c.Merged = append(c.Merged, pr)
		case domain.Closed:
			c.Closed = append(c.Closed, pr)
		default:
			c.Opened = append(c.Opened, pr)
		}
	}
	return c
}
