package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

// ---- LineSplitter tests -----------------------------------------------------

// TestLineSplitter_SingleChunk_ReturnsAllLines verifies that a chunk holding
// several complete lines yields them in order, terminators stripped.
func TestLineSplitter_SingleChunk_ReturnsAllLines(t *testing.T) {
	splitter := NewLineSplitter(0)

	lines := splitter.Feed([]byte("data: one\n\ndata: two\r\n"))

	expected := []string{"data: one", "", "data: two"}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("expected %q, got %q", expected, lines)
	}
	if splitter.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d bytes", splitter.Pending())
	}
}

// TestLineSplitter_LineAcrossChunks_IsReassembled verifies that a line split
// across chunk boundaries comes out exactly once and intact.
func TestLineSplitter_LineAcrossChunks_IsReassembled(t *testing.T) {
	splitter := NewLineSplitter(0)

	var lines []string
	for _, chunk := range []string{`data: {"a":`, `"he`, `llo"}`, "\n"} {
		lines = append(lines, splitter.Feed([]byte(chunk))...)
	}

	expected := []string{`data: {"a":"hello"}`}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("expected %q, got %q", expected, lines)
	}
}

// TestLineSplitter_ByteAtATime_MatchesWholeInput verifies that feeding one
// byte at a time produces the same lines as a single feed.
func TestLineSplitter_ByteAtATime_MatchesWholeInput(t *testing.T) {
	input := "data: ä\n\ndata: ünïcode\r\n\ndata: [DONE]\n"

	whole := NewLineSplitter(0).Feed([]byte(input))

	splitter := NewLineSplitter(0)
	var pieces []string
	for i := 0; i < len(input); i++ {
		pieces = append(pieces, splitter.Feed([]byte{input[i]})...)
	}

	if !reflect.DeepEqual(whole, pieces) {
		t.Errorf("byte-wise split differs:\nwhole:  %q\npieces: %q", whole, pieces)
	}
}

// TestLineSplitter_Flush_ReturnsUnterminatedTail verifies the trailing line
// without a newline is handed out once at EOF.
func TestLineSplitter_Flush_ReturnsUnterminatedTail(t *testing.T) {
	splitter := NewLineSplitter(0)
	splitter.Feed([]byte("data: first\ndata: tail"))

	tail, ok := splitter.Flush()
	if !ok || tail != "data: tail" {
		t.Errorf("expected tail %q, got %q (ok=%v)", "data: tail", tail, ok)
	}

	if _, ok := splitter.Flush(); ok {
		t.Error("expected second Flush to report nothing pending")
	}
}

// TestLineSplitter_OversizedLine_IsDropped verifies that a line over the limit
// is discarded whole while its neighbours survive.
func TestLineSplitter_OversizedLine_IsDropped(t *testing.T) {
	splitter := NewLineSplitter(8)

	var lines []string
	lines = append(lines, splitter.Feed([]byte("ok\n0123"))...)
	lines = append(lines, splitter.Feed([]byte("456789abc"))...)
	lines = append(lines, splitter.Feed([]byte("def\nnext\n"))...)

	expected := []string{"ok", "next"}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("expected %q, got %q", expected, lines)
	}
	if splitter.Dropped() != 1 {
		t.Errorf("expected 1 dropped line, got %d", splitter.Dropped())
	}
}

// ---- DoPostStream tests -----------------------------------------------------

// TestDoPostStream_SuccessResponse_ReturnsOpenBody verifies that a 200
// response leaves the body open for incremental reading.
func TestDoPostStream_SuccessResponse_ReturnsOpenBody(t *testing.T) {
	var capturedAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: chunk1\n\n")
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), server.Client(), server.URL, map[string]string{"q": "test"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer CloseWithLog(response.Body)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "data: chunk1\n\n" {
		t.Errorf("unexpected body %q", body)
	}
	if capturedAccept != "text/event-stream" {
		t.Errorf("expected Accept text/event-stream, got %q", capturedAccept)
	}
}

// TestDoPostStream_RateLimited_ReturnsStatusError verifies that a 429 is
// reported before any streaming, with the status preserved.
func TestDoPostStream_RateLimited_ReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := DoPostStream(context.Background(), server.Client(), server.URL, map[string]string{})

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected error text to mention 429, got %v", err)
	}
}

// TestDoPostStream_ContextCancellation_ReturnsError verifies that a
// pre-cancelled context fails without a response.
func TestDoPostStream_ContextCancellation_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DoPostStream(cancelledCtx, server.Client(), server.URL, map[string]string{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestDoPostStream_NetworkError_ReturnsError verifies that an unreachable
// upstream yields an error.
func TestDoPostStream_NetworkError_ReturnsError(t *testing.T) {
	_, err := DoPostStream(context.Background(), nil, "http://127.0.0.1:1", map[string]string{})
	if err == nil {
		t.Fatal("expected network error, got nil")
	}
}
