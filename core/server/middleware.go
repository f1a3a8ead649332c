package server

import (
	"net/http"
	"time"

	"github.com/stechy/chatrelay/providers/observability"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-user-id"
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
)

// withCORS sets the CORS headers on every response and answers preflight
// requests for any path with 204.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		header.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs one entry per request once the handler returns. For
// streams that is after the last event was written.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		attrs := []observability.Attribute{
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPRoute, r.URL.Path),
			observability.Int(observability.AttrHTTPStatusCode, recorder.status),
			observability.Int64(observability.AttrHTTPResponseBodySize, recorder.bytes),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		}
		if r.ContentLength > 0 {
			attrs = append(attrs, observability.Int64(observability.AttrHTTPRequestBodySize, r.ContentLength))
		}
		s.observer.Info(r.Context(), "HTTP request", attrs...)
	})
}

// statusRecorder captures the status and size of a response. It forwards
// Flush so streamed events are not held back.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
