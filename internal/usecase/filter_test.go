package usecase

import (
	"testing"
	"time"

	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFilterWindow(t *testing.T) {
	cutoff := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	testCases := []struct {
		name     string
		created  []time.Time
		expected []int
	}{
		{
			name:     "created exactly at the cutoff is kept",
			created:  []time.Time{cutoff},
			expected: []int{1},
		},
		{
			name:     "created one second before the cutoff is dropped",
			created:  []time.Time{cutoff.Add(-time.Second)},
			expected: []int{},
		},
		{
			name: "order is preserved",
			created: []time.Time{
				cutoff.Add(48 * time.Hour),
				cutoff.Add(-24 * time.Hour),
				cutoff.Add(time.Hour),
				cutoff.Add(72 * time.Hour),
			},
			expected: []int{1, 3, 4},
		},
		{
			// 08:59:59 JST on the 12th is 23:59:59 UTC on the 11th.
			name:     "comparison is done on the instant, not the local date",
			created:  []time.Time{time.Date(2026, 10, 12, 8, 59, 59, 0, tokyo), time.Date(2026, 10, 12, 9, 0, 0, 0, tokyo)},
			expected: []int{2},
		},
		{
			name:     "no input",
			created:  nil,
			expected: []int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pulls := make([]domain.PullRequest, 0, len(tc.created))
			for i, created := range tc.created {
				pulls = append(pulls, domain.PullRequest{Number: i + 1, State: domain.StateOpen, CreatedAt: created})
			}
			got := FilterWindow(pulls, cutoff)
			numbers := make([]int, 0, len(got))
			for _, pr := range got {
				numbers = append(numbers, pr.Number)
			}
			assert.Equal(t, tc.expected, numbers)
		})
	}
}

func TestCategorize(t *testing.T) {
	created := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	merged := created.Add(5 * time.Hour)
	closed := created.Add(6 * time.Hour)

	pulls := []domain.PullRequest{
		{Number: 1, State: domain.StateOpen, CreatedAt: created},
		{Number: 2, State: domain.StateClosed, CreatedAt: created, ClosedAt: &closed},
		{Number: 3, State: domain.StateClosed, CreatedAt: created, ClosedAt: &merged, MergedAt: &merged},
		{Number: 4, State: domain.StateOpen, CreatedAt: created, MergedAt: &merged},
		{Number: 5, State: domain.StateOpen, CreatedAt: created},
		{Number: 6, State: domain.StateClosed, CreatedAt: created},
	}

	c := Categorize(pulls)

	ids := func(prs []domain.PullRequest) []int {
		out := []int{}
		for _, pr := range prs {
			out = append(out, pr.Number)
		}
		return out
	}
	assert.Equal(t, []int{1, 5}, ids(c.Opened))
	assert.Equal(t, []int{2, 6}, ids(c.Closed))
	assert.Equal(t, []int{3, 4}, ids(c.Merged))

	// Every input lands in exactly one category.
	assert.Equal(t, len(pulls), len(c.Opened)+len(c.Closed)+len(c.Merged))
	seen := map[int]int{}
	for _, group := range [][]domain.PullRequest{c.Opened, c.Closed, c.Merged} {
		for _, pr := range group {
			seen[pr.Number]++
		}
	}
	for _, pr := range pulls {
		assert.Equal(t, 1, seen[pr.Number], "pull request #%d", pr.Number)
	}
}

func TestCategorize_Empty(t *testing.T) {
	c := Categorize(nil)
	assert.Empty(t, c.Opened)
	assert.Empty(t, c.Closed)
	assert.Empty(t, c.Merged)
}
