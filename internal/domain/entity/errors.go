package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress is returned for a missing or malformed wallet
// address before any upstream call is made.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ErrMissingAPIKey is returned when a required provider credential is
// absent from the configuration.
var ErrMissingAPIKey = errors.New("required API key is not configured")

// UpstreamErrorKind categorizes a provider call failure for logging and
// metrics. The caller-facing message never carries the detail.
type UpstreamErrorKind string

const (
	// UpstreamAuth covers 401/403 responses.
	UpstreamAuth UpstreamErrorKind = "auth"
	// UpstreamRateLimited covers 429 responses.
	UpstreamRateLimited UpstreamErrorKind = "rate_limited"
	// UpstreamTimeout covers deadline and cancellation failures.
	UpstreamTimeout UpstreamErrorKind = "timeout"
	// UpstreamTransport covers network and DNS failures.
	UpstreamTransport UpstreamErrorKind = "transport"
	// UpstreamMalformed covers non-JSON or schema-violating bodies.
	UpstreamMalformed UpstreamErrorKind = "malformed"
	// UpstreamUnexpectedStatus covers every other non-2xx response.
	UpstreamUnexpectedStatus UpstreamErrorKind = "unexpected_status"
)

// UpstreamError wraps a failed provider call with enough context to
// classify it without parsing message strings.
type UpstreamError struct {
	Provider   string
	Kind       UpstreamErrorKind
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *UpstreamError) Unwrap() error { return e.Err }

// KindFromStatus maps an HTTP status code to an error kind.
func KindFromStatus(status int) UpstreamErrorKind {
	switch {
	case status == 401 || status == 403:
		return UpstreamAuth
	case status == 429:
		return UpstreamRateLimited
	default:
		return UpstreamUnexpectedStatus
	}
}
