package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stechy/chatrelay/providers/observability"
)

// DoPostStream performs an HTTP POST request and returns the raw response with
// the body left open for incremental reading. The caller is responsible for
// closing the response body. On error paths the body is read and closed before
// returning, and a non-2xx status yields *HTTPStatusError.
//
// No timeout is applied here: the stream lives as long as ctx and the two
// endpoints keep it open.
func DoPostStream(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	req, bodySize, err := newJSONRequest(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
		)
	}

	requestStart := time.Now()
	response, err := httpClientOrDefault(client).Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if span != nil {
			span.AddEvent("http.stream_request.error",
				observability.Error(err),
				observability.Duration(observability.AttrDuration, requestDuration),
			)
		}
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		return response, readStatusError(response)
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrDuration, requestDuration),
		)
	}

	return response, nil
}

// DefaultMaxLineSize is the largest SSE line LineSplitter keeps (1 MB). Gemini
// events carrying long completions or inline images can exceed bufio's 64 KiB
// default.
const DefaultMaxLineSize = 1 * 1024 * 1024

// LineSplitter turns arbitrarily chunked bytes into complete lines. A line
// that straddles a chunk boundary is carried over and completed by the next
// Feed, so a payload is never split in two.
//
// Lines longer than the configured maximum are discarded up to their next
// newline and counted in Dropped. Line terminators ("\n" or "\r\n") are
// stripped.
type LineSplitter struct {
	carry      []byte
	maxLine    int
	discarding bool
	dropped    int
}

// NewLineSplitter returns a splitter that keeps lines up to maxLineSize bytes.
// A non-positive size selects DefaultMaxLineSize.
func NewLineSplitter(maxLineSize int) *LineSplitter {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &LineSplitter{maxLine: maxLineSize}
}

// Feed consumes one chunk and returns every line it completed, in order.
// The chunk is not retained.
func (s *LineSplitter) Feed(chunk []byte) []string {
	var lines []string

	for len(chunk) > 0 {
		newline := bytes.IndexByte(chunk, '\n')
		if newline < 0 {
			s.buffer(chunk)
			break
		}

		segment := chunk[:newline]
		chunk = chunk[newline+1:]

		if s.discarding {
			// Tail of an oversized line; it was already counted.
			s.discarding = false
			s.carry = s.carry[:0]
			continue
		}

		line := segment
		if len(s.carry) > 0 {
			s.carry = append(s.carry, segment...)
			line = s.carry
		}

		if len(line) > s.maxLine {
			s.dropped++
			s.carry = s.carry[:0]
			continue
		}

		lines = append(lines, string(bytes.TrimSuffix(line, []byte{'\r'})))
		s.carry = s.carry[:0]
	}

	return lines
}

// Flush returns the unterminated remainder once the input has ended.
// It reports false when nothing is pending.
func (s *LineSplitter) Flush() (string, bool) {
	defer func() {
		s.carry = s.carry[:0]
		s.discarding = false
	}()

	if s.discarding || len(s.carry) == 0 {
		return "", false
	}
	return string(bytes.TrimSuffix(s.carry, []byte{'\r'})), true
}

// Dropped reports how many oversized lines were discarded.
func (s *LineSplitter) Dropped() int {
	return s.dropped
}

// Pending reports how many bytes are waiting for a line terminator.
func (s *LineSplitter) Pending() int {
	return len(s.carry)
}

func (s *LineSplitter) buffer(part []byte) {
	if s.discarding {
		return
	}
	if len(s.carry)+len(part) > s.maxLine {
		s.dropped++
		s.discarding = true
		s.carry = s.carry[:0]
		return
	}
	s.carry = append(s.carry, part...)
}
