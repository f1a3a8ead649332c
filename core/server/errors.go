package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/observability"
)

// Client-facing messages. Upstream bodies never reach the client.
const (
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgQuotaExceeded   = "Payment required. Please add credits to your workspace to continue."
	msgNotConfigured   = "GEMINI_API_KEY is not configured"
	msgUpstreamFailure = "AI service request failed. Please try again."
	msgNotFound        = "Conversation not found"
	msgMissingUser     = "Missing X-User-Id header"
	msgStoreFailure    = "Conversation store request failed. Please try again."
)

var errMissingUser = errors.New("missing user id")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps err to a status and message. fallback is the message for
// unclassified failures.
func statusFor(err error, fallback string) (int, string) {
	var requestErr *ai.RequestError
	switch {
	case errors.As(err, &requestErr):
		return http.StatusBadRequest, requestErr.Reason
	case errors.Is(err, ai.ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusPaymentRequired, msgQuotaExceeded
	case errors.Is(err, ai.ErrConfiguration):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.Is(err, errMissingUser):
		return http.StatusUnauthorized, msgMissingUser
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	default:
		return http.StatusInternalServerError, fallback
	}
}

// writeError logs err and writes its JSON error body. Client errors are
// logged at WARN, everything else at ERROR.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status, message := statusFor(err, fallback)

	attrs := []observability.Attribute{
		observability.Int(observability.AttrHTTPStatusCode, status),
		observability.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.observer.Error(ctx, "Request failed", attrs...)
	} else {
		s.observer.Warn(ctx, "Request rejected", attrs...)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, status))
		span.RecordError(err)
		span.SetStatus(observability.StatusError, message)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is committed; an encode failure means the client is gone.
	_ = json.NewEncoder(w).Encode(body)
}
