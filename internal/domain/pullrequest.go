package domain

import "time"

// State is the lifecycle state reported by the remote API.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Category is the mutually exclusive classification of a pull request.
type Category int

const (
	Opened Category = iota
	Closed
	Merged
)

func (c Category) String() string {
	switch c {
	case Opened:
		return "Opened"
	case Closed:
		return "Closed"
	case Merged:
		return "Merged"
	default:
		return "Unknown"
	}
}

// PullRequest is a single pull request as returned by the listing.
// Values are built once per API item and never mutated afterwards.
type PullRequest struct {
	Number      int
	Title       string
	URL         string
	AuthorLogin string
	AuthorName  string // empty when unknown
	AuthorEmail string // empty when unknown
	CreatedAt   time.Time
	ClosedAt    *time.Time
	MergedAt    *time.Time
	State       State
	Labels      []string
}

// Category derives the classification from State and MergedAt.
// A merge timestamp wins over whatever state the API reported.
func (p PullRequest) Category() Category {
	switch {
	case p.MergedAt != nil:
		return Merged
	case p.State == StateClosed:
		return Closed
	default:
		return Opened
	}
}

// TransitionAt returns the timestamp of the event that put the pull request
// in its category, or nil when the API did not report it.
func (p PullRequest) TransitionAt() *time.Time {
	switch p.Category() {
	case Merged:
		return p.MergedAt
	case Closed:
		return p.ClosedAt
	default:
		created := p.CreatedAt
		return &created
	}
}

// WithAuthor returns a copy carrying the given display name and email.
func (p PullRequest) WithAuthor(name, email string) PullRequest {
	p.AuthorName = name
	p.AuthorEmail = email
	return p
}
