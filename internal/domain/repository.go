// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
)

// Repository identifies a single repository as owner/name.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository validates raw and splits it into owner and name.
// It never touches the network, so malformed input fails before any API call.
func ParseRepository(raw string) (Repository, error) {
	if strings.Count(raw, "/") != 1 {
		return Repository{}, fmt.Errorf("%w: %q must be in owner/name form", ErrInvalidRepositoryFormat, raw)
	}
	owner, name, _ := strings.Cut(raw, "/")
	if owner == "" || name == "" {
		return Repository{}, fmt.Errorf("%w: %q must be in owner/name form", ErrInvalidRepositoryFormat, raw)
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// RepositoryMetadata is what the repository lookup returns.
// It is only used to confirm the repository exists and is readable.
type RepositoryMetadata struct {
	FullName      string
	Private       bool
	DefaultBranch string
}
