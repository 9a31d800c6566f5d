package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every failure surfaced by the pipeline matches exactly one of
// these with errors.Is.
var (
	ErrInvalidRepositoryFormat = errors.New("invalid repository format")
	ErrMissingConfiguration    = errors.New("missing configuration")
	ErrInvalidConfiguration    = errors.New("invalid configuration")
	ErrAuthentication          = errors.New("authentication failed")
	ErrAccessForbidden         = errors.New("access forbidden")
	ErrRepositoryNotFound      = errors.New("repository not found")
	ErrRateLimitExceeded       = errors.New("rate limit exceeded")
	ErrTransport               = errors.New("transport failure")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrUnexpectedAPI           = errors.New("unexpected API response")
)

var kinds = []error{
	ErrInvalidRepositoryFormat,
	ErrMissingConfiguration,
	ErrInvalidConfiguration,
	ErrAuthentication,
	ErrAccessForbidden,
	ErrRepositoryNotFound,
	ErrRateLimitExceeded,
	ErrTransport,
	ErrMalformedResponse,
	ErrUnexpectedAPI,
}

// KindOf returns the error kind err belongs to, or nil if it matches none.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// APIError is a failed call against the remote API.
type APIError struct {
	Kind       error
	StatusCode int    // zero when no response was received
	Message    string // message reported by the API, if any
	ResetAt    time.Time
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StageError tags a failure with the pipeline stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
