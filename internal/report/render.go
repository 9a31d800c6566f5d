// Package report renders a domain.Report as the plain text summary printed by the CLI.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/naka-gawa/pr-report/internal/domain"
)

// TimeLayout is the fixed layout of every timestamp in the report.
const TimeLayout = "2006-01-02 15:04:05 UTC"

const (
	notAvailable      = "not available"
	emailNotAvailable = "email " + notAvailable
	dateNotAvailable  = "date " + notAvailable
)

// Render returns the text of r. The output only depends on r, so rendering the
// same value twice yields identical bytes.
func Render(r domain.Report) string {
	var b strings.Builder
	repo := r.Window.Repository.String()

	fmt.Fprintf(&b, "Pull Request Summary for %s (Last %d %s)\n\n", repo, r.Window.Days, plural(r.Window.Days, "Day", "Days"))
	fmt.Fprintf(&b, "Here's a summary of pull request activity in the %s repository for the past %d %s:\n",
		repo, r.Window.Days, plural(r.Window.Days, "day", "days"))

	writeSection(&b, "Opened", r.Opened)
	writeSection(&b, "Closed", r.Closed)
	writeSection(&b, "Merged", r.Merged)
	if r.MergeStats.Count > 0 {
		fmt.Fprintf(&b, "Time to merge: median %s, mean %s\n", r.MergeStats.Median, r.MergeStats.Mean)
	}

	fmt.Fprintf(&b, "\nTotal PRs: %d\n", r.Total())
	return b.String()
}

func writeSection(b *strings.Builder, name string, pulls []domain.PullRequest) {
	fmt.Fprintf(b, "\n%s PRs (%d):\n", name, len(pulls))
	if len(pulls) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, pr := range pulls {
		writePullRequest(b, pr)
	}
}

func writePullRequest(b *strings.Builder, pr domain.PullRequest) {
	fmt.Fprintf(b, "- %s (#%d)\n", pr.Title, pr.Number)
	fmt.Fprintf(b, "  URL: %s\n", orPlaceholder(pr.URL, notAvailable))
	fmt.Fprintf(b, "  Submitted by: %s\n", submitter(pr))
	fmt.Fprintf(b, "  Submitted at: %s\n", formatTime(&pr.CreatedAt))
	if at := pr.TransitionAt(); at != nil && !at.IsZero() {
		fmt.Fprintf(b, "  Status: %s at %s\n", pr.Category(), formatTime(at))
	} else {
		fmt.Fprintf(b, "  Status: %s (%s)\n", pr.Category(), dateNotAvailable)
	}
	if len(pr.Labels) > 0 {
		fmt.Fprintf(b, "  Labels: %s\n", strings.Join(pr.Labels, ", "))
	}
}

// submitter prefers the display name and falls back to the login.
func submitter(pr domain.PullRequest) string {
	name := pr.AuthorName
	if name == "" {
		name = orPlaceholder(pr.AuthorLogin, "unknown author")
	}
	if pr.AuthorEmail == "" {
		return fmt.Sprintf("%s (%s)", name, emailNotAvailable)
	}
	return fmt.Sprintf("%s <%s>", name, pr.AuthorEmail)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return dateNotAvailable
	}
	return t.UTC().Format(TimeLayout)
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
