// Package lookup fetches show and episode data from a remote episode
// database. Callers depend on Provider; TVMaze is the default backend.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ShowCandidate is one search hit. Identity is the ID, never the name.
type ShowCandidate struct {
	ID        string
	Name      string
	Premiered string
	Network   string
}

// Year returns the premiere year, or "" when unknown
func (c ShowCandidate) Year() string {
	if len(c.Premiered) >= 4 {
		return c.Premiered[:4]
	}
	return ""
}

// Label is a human-readable line for pickers and logs
func (c ShowCandidate) Label() string {
	label := c.Name
	if y := c.Year(); y != "" {
		label += " (" + y + ")"
	}
	if c.Network != "" {
		label += " - " + c.Network
	}
	return label
}

// Episode is one entry of a show's episode list
type Episode struct {
	Season  int
	Number  int
	Title   string
	Airdate string
	Summary string
}

// Provider is the search and episode-list capability the engine consumes
type Provider interface {
	Search(ctx context.Context, name string) ([]ShowCandidate, error)
	Episodes(ctx context.Context, showID string) ([]Episode, error)
}

// ErrNotFound means the provider has no record for the requested id
var ErrNotFound = errors.New("not found")

// TransportError is a provider failure that says nothing about whether the
// show exists: network errors, rate limiting, server errors.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: API returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed
func (e *TransportError) Retryable() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransport reports whether err is (or wraps) a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRetryable reports whether err is a retryable TransportError
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable()
}
