package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stechy/chatrelay/core/router"
	"github.com/stechy/chatrelay/internal/utils"
	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/observability"
)

// handleChat serves POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := observability.ContextWithObserver(r.Context(), s.observer)
	ctx, span := s.observer.StartSpan(ctx, observability.SpanRelayRequest,
		observability.String(observability.AttrHTTPRoute, "/chat"),
		observability.String(observability.AttrLLMProvider, s.router.Provider().Name()),
	)
	defer span.End()

	mode := "unknown"
	defer func() {
		attrs := []observability.Attribute{observability.String(observability.AttrChatMode, mode)}
		s.observer.Histogram(observability.MetricRequestDuration).Record(ctx, time.Since(start).Seconds(), attrs...)
		s.observer.Counter(observability.MetricRequestCount).Add(ctx, 1, attrs...)
	}()

	var request ai.ChatRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(ctx, w, err, msgUpstreamFailure)
		return
	}
	mode = request.Mode.String()

	result, err := s.router.Route(ctx, request)
	if err != nil {
		s.writeError(ctx, w, err, msgUpstreamFailure)
		return
	}

	if result.Image != nil {
		span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, http.StatusOK))
		span.SetStatus(observability.StatusOK, "")
		writeJSON(w, http.StatusOK, result.Image)
		return
	}

	s.stream(ctx, w, span, result)
}

// stream commits the 200 event-stream header and relays result.Stream.
// From here on failures can only end the stream.
func (s *Server) stream(ctx context.Context, w http.ResponseWriter, span observability.Span, result router.Result) {
	defer utils.CloseWithLog(result.Stream)

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, http.StatusOK))

	stats, err := s.relay.Pipe(ctx, w, result.Stream)

	attrs := []observability.Attribute{
		observability.String(observability.AttrChatMode, result.Mode.String()),
		observability.Int(observability.AttrRelayFragments, stats.Fragments),
		observability.Int(observability.AttrRelayMalformed, stats.Malformed),
		observability.Bool(observability.AttrRelaySentinel, stats.SentinelSent),
		observability.String(observability.AttrRelayState, stats.State.String()),
	}
	if stats.Usage != nil {
		attrs = append(attrs,
			observability.Int(observability.AttrLLMTokensPrompt, stats.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, stats.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, stats.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attrs...)

	switch {
	case err == nil:
		span.SetStatus(observability.StatusOK, "")
		s.observer.Debug(ctx, "Stream relayed", attrs...)
	case errors.Is(err, context.Canceled):
		s.observer.Info(ctx, "Client disconnected during stream", attrs...)
	default:
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "stream interrupted")
		s.observer.Warn(ctx, "Stream interrupted", append(attrs, observability.Error(err))...)
	}
}
