// Package backend implements the search backends that produce candidate business
// sites: Google Custom Search, DuckDuckGo, the YellowPages directory and social
// profile dorks.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/lead-scraper/internal/types"
)

// Adapter is a search backend. Implementations issue their underlying requests
// sequentially and return the results gathered so far with any aborting error.
type Adapter interface {
	// Name is the display name used in lead sources ("Google", "DuckDuckGo").
	Name() string
	Search(ctx context.Context, query, location string, page int) ([]types.SearchResult, error)
}

// Querier runs one raw query string. The social adapter builds on it.
type Querier interface {
	Name() string
	Query(ctx context.Context, query string, limit int) ([]types.SearchResult, error)
}

// ErrorKind classifies backend failures.
type ErrorKind string

const (
	// KindQuota means the backend's request budget is exhausted
	KindQuota ErrorKind = "quota"
	// KindAuth means credentials are missing or rejected
	KindAuth ErrorKind = "auth"
	// KindBlocked means the backend refused automated traffic
	KindBlocked ErrorKind = "blocked"
	// KindNetwork is a transport failure or unexpected status
	KindNetwork ErrorKind = "network"
	// KindParse means a response or listing could not be parsed
	KindParse ErrorKind = "parse"
)

// Aborts reports whether the kind ends the adapter's call.
func (k ErrorKind) Aborts() bool {
	switch k {
	case KindQuota, KindAuth, KindBlocked:
		return true
	}
	return false
}

// Error is a classified backend failure.
type Error struct {
	Backend string
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s backend %s error: %s: %v", e.Backend, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s backend %s error: %s", e.Backend, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Failure converts the error to its wire form.
func (e *Error) Failure() types.BackendFailure {
	return types.BackendFailure{Backend: e.Backend, Kind: string(e.Kind), Message: e.Message}
}

// IsAbort reports whether err is a backend error that ends the adapter's call.
func IsAbort(err error) bool {
	var backendErr *Error
	return errors.As(err, &backendErr) && backendErr.Kind.Aborts()
}

// AsError returns err as a *Error, wrapping unclassified errors as network failures.
func AsError(backend string, err error) *Error {
	if err == nil {
		return nil
	}
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr
	}
	return &Error{Backend: backend, Kind: KindNetwork, Message: "request failed", Cause: err}
}

// statusKind maps an HTTP status of an HTML backend to an error kind.
func statusKind(status int) ErrorKind {
	switch status {
	case http.StatusAccepted, http.StatusForbidden, http.StatusTooManyRequests:
		return KindBlocked
	}
	return KindNetwork
}
