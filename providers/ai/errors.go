package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration means the provider credential is missing. It is
	// returned before any network call.
	ErrConfiguration = errors.New("provider credential is not configured")

	// ErrInvalidRequest means the client request is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited means the upstream answered 429.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrQuotaExceeded means the upstream answered 402.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrUpstreamFailure covers every other upstream failure.
	ErrUpstreamFailure = errors.New("upstream request failed")
)

// RequestError is a validation failure with a client-facing reason.
type RequestError struct {
	Reason string
}

// InvalidRequest returns a *RequestError for reason.
func InvalidRequest(reason string) error {
	return &RequestError{Reason: reason}
}

func (e *RequestError) Error() string {
	return "invalid request: " + e.Reason
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

// UpstreamError is a non-2xx answer from the provider. Body is kept for logs
// only and must not reach the client.
type UpstreamError struct {
	Provider   string
	StatusCode int
	// Status and Message come from the provider's error envelope, if any.
	Status  string
	Message string
	Body    []byte
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

// Unwrap classifies the status so errors.Is(err, ErrRateLimited) works.
func (e *UpstreamError) Unwrap() error {
	return ClassifyStatus(e.StatusCode)
}

// ClassifyStatus maps an upstream HTTP status to a sentinel error.
func ClassifyStatus(statusCode int) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrQuotaExceeded
	default:
		return ErrUpstreamFailure
	}
}
