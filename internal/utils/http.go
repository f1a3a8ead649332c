package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stechy/chatrelay/providers/observability"
)

// maxResponseBodySize caps how much of an upstream body is read into memory
// for buffered responses and error bodies (10 MB).
const maxResponseBodySize int64 = 10 * 1024 * 1024

// maxErrorBodySize caps how much of a non-2xx body is kept for logging.
const maxErrorBodySize int64 = 64 * 1024

// HeaderOption is an extra request header applied after the defaults.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPStatusError is returned by DoPostSync and DoPostStream when the upstream
// answers with a non-2xx status. Body holds at most maxErrorBodySize bytes of
// the response so callers can log it without surfacing it.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateStringDefault(string(e.Body)))
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and decodes the
// JSON response into OutputStruct.
//
// Error Handling Strategy:
//   - Transport failures (including context cancellation) are wrapped and returned
//   - Non-2xx statuses return *HTTPStatusError with the (capped) body
//   - Decoding failures include a truncated response preview
//
// The response body is always closed before returning.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	req, bodySize, err := newJSONRequest(ctx, url, body, headers)
	if err != nil {
		return nil, nil, err
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
		)
	}

	requestStart := time.Now()
	res, err := httpClientOrDefault(client).Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration(observability.AttrDuration, requestDuration),
			)
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, readStatusError(res)
	}

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration(observability.AttrDuration, requestDuration),
		)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return res, &resStruct, nil
}

// CloseWithLog closes c and logs a warning if closing fails. It is meant for
// deferred response body cleanup where the close error cannot be returned.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}

func newJSONRequest(ctx context.Context, url string, body any, headers []HeaderOption) (*http.Request, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	return req, len(jsonBody), nil
}

// readStatusError drains up to maxErrorBodySize bytes of a failed response.
// The caller still owns closing the body.
func readStatusError(res *http.Response) error {
	errorBody, readErr := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
	if readErr != nil {
		slog.Warn("failed to read upstream error body", "status", res.StatusCode, "error", readErr.Error())
	}
	return &HTTPStatusError{StatusCode: res.StatusCode, Body: errorBody}
}
