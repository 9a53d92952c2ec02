// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a transport failure. The client decides how to retry from
// the kind alone.
type Kind int

const (
	// KindUnknown is any failure the transport could not classify.
	KindUnknown Kind = iota
	// KindRateLimited is an HTTP 429 or quota exhaustion.
	KindRateLimited
	// KindNotFound means the model does not exist or is not available to the key.
	KindNotFound
	// KindServer is a 5xx response.
	KindServer
	// KindTransient is a network error or a per-call timeout.
	KindTransient
	// KindEmpty is a successful call that returned no text.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "model_not_found"
	case KindServer:
		return "server_error"
	case KindTransient:
		return "transient"
	case KindEmpty:
		return "empty_response"
	default:
		return "unknown"
	}
}

// Error is the typed error every transport returns.
type Error struct {
	Kind     Kind
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Model, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrAllProvidersExhausted is returned (wrapped in *ExhaustedError) when every
// candidate failed.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// ExhaustedError carries the last failure seen before giving up.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v after %d attempts", ErrAllProvidersExhausted, e.Attempts)
	}
	return fmt.Sprintf("%v after %d attempts: last error: %v", ErrAllProvidersExhausted, e.Attempts, e.Last)
}

// Is makes errors.Is(err, ErrAllProvidersExhausted) hold.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// KindOf returns the kind of err. Errors that are not *Error are classified
// as transient when they come from the context deadline or the network, and
// unknown otherwise.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}

// kindForStatus maps an HTTP status code reported by an SDK to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestTimeout:
		return KindTransient
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// classify wraps err as *Error, using status when the SDK reported one.
// A deadline or network failure becomes KindTransient.
func classify(provider, model string, status int, err error) *Error {
	kind := KindOf(err)
	if status > 0 {
		kind = kindForStatus(status)
	}
	return &Error{Kind: kind, Provider: provider, Model: model, Err: err}
}
