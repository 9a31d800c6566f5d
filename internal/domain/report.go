package domain

import "time"

// Window is the time range a report covers: [Cutoff, now].
type Window struct {
	Repository Repository
	Days       int
	Cutoff     time.Time
}

// NewWindow builds a window ending at now and reaching back days full days.
func NewWindow(repo Repository, days int, now time.Time) Window {
	return Window{
		Repository: repo,
		Days:       days,
		Cutoff:     now.UTC().Add(-time.Duration(days) * 24 * time.Hour),
	}
}

// Contains reports whether t falls inside the window. The cutoff itself is included.
func (w Window) Contains(t time.Time) bool {
	return !t.UTC().Before(w.Cutoff.UTC())
}

// MergeStats summarises how long merged pull requests took from creation to merge.
type MergeStats struct {
	Count  int
	Median time.Duration
	Mean   time.Duration
}

// Report is the categorized result of one run. It is rendered separately.
type Report struct {
	Window     Window
	Opened     []PullRequest
	Closed     []PullRequest
	Merged     []PullRequest
	MergeStats MergeStats
}

// Total is the number of pull requests across all three categories.
func (r Report) Total() int {
	return len(r.Opened) + len(r.Closed) + len(r.Merged)
}

// RateLimitStatus is the remaining quota and when it resets.
type RateLimitStatus struct {
	Remaining int
	ResetAt   time.Time
}
