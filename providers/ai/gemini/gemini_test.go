package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stechy/chatrelay/providers/ai"
)

// recordingServer captures the last request body and path and answers with
// the given status and body.
type recordingServer struct {
	*httptest.Server
	hits    atomic.Int32
	path    string
	query   string
	apiKey  string
	request generateContentRequest
}

func newRecordingServer(t *testing.T, status int, body string) *recordingServer {
	t.Helper()
	recorder := &recordingServer{}
	recorder.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder.hits.Add(1)
		recorder.path = r.URL.Path
		recorder.query = r.URL.RawQuery
		recorder.apiKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&recorder.request); err != nil {
			t.Errorf("decoding upstream request: %v", err)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(recorder.Close)
	return recorder
}

// TestProvider_MissingKey_NoNetworkCall verifies every operation fails with
// ErrConfiguration before contacting the upstream.
func TestProvider_MissingKey_NoNetworkCall(t *testing.T) {
	server := newRecordingServer(t, http.StatusOK, `{}`)
	provider := New("", WithBaseURL(server.URL))
	ctx := context.Background()

	if _, err := provider.StreamChat(ctx, "", []ai.Message{{Role: ai.RoleUser, Content: "hi"}}); !errors.Is(err, ai.ErrConfiguration) {
		t.Errorf("StreamChat: expected ErrConfiguration, got %v", err)
	}
	if _, err := provider.GenerateImage(ctx, "a cat"); !errors.Is(err, ai.ErrConfiguration) {
		t.Errorf("GenerateImage: expected ErrConfiguration, got %v", err)
	}
	if _, err := provider.EditImage(ctx, "blue", ai.DataURL{MimeType: "image/png", Data: "AAAA"}); !errors.Is(err, ai.ErrConfiguration) {
		t.Errorf("EditImage: expected ErrConfiguration, got %v", err)
	}
	if hits := server.hits.Load(); hits != 0 {
		t.Errorf("expected no upstream calls, got %d", hits)
	}
}

// TestProvider_StreamChat_RequestShape verifies URL, auth header, system
// instruction, role mapping and chat generation settings.
func TestProvider_StreamChat_RequestShape(t *testing.T) {
	server := newRecordingServer(t, http.StatusOK, "data: {}\n\n")
	provider := New("test-key", WithBaseURL(server.URL+"/"), WithModel("gemini-test"))

	stream, err := provider.StreamChat(context.Background(), "You are Stechy.", []ai.Message{
		{Role: ai.RoleUser, Content: "hi"},
		{Role: ai.RoleAssistant, Content: "hello"},
		{Role: ai.RoleUser, Content: "how are you"},
	})
	if err != nil {
		t.Fatalf("StreamChat returned error: %v", err)
	}
	body, _ := io.ReadAll(stream)
	_ = stream.Close()

	if string(body) != "data: {}\n\n" {
		t.Errorf("expected raw upstream body, got %q", body)
	}
	if server.path != "/models/gemini-test:streamGenerateContent" || server.query != "alt=sse" {
		t.Errorf("unexpected endpoint %s?%s", server.path, server.query)
	}
	if server.apiKey != "test-key" {
		t.Errorf("expected api key header, got %q", server.apiKey)
	}

	request := server.request
	if request.SystemInstruction == nil || request.SystemInstruction.Parts[0].Text != "You are Stechy." {
		t.Errorf("expected system instruction, got %+v", request.SystemInstruction)
	}
	roles := []string{request.Contents[0].Role, request.Contents[1].Role, request.Contents[2].Role}
	if roles[0] != "user" || roles[1] != "model" || roles[2] != "user" {
		t.Errorf("unexpected roles %v", roles)
	}
	if request.GenerationConfig == nil || request.GenerationConfig.MaxOutputTokens != 8192 || request.GenerationConfig.Temperature != 0.7 {
		t.Errorf("unexpected generation config %+v", request.GenerationConfig)
	}
	if len(request.SafetySettings) != 4 {
		t.Errorf("expected 4 safety settings, got %d", len(request.SafetySettings))
	}
}

func TestProvider_StreamChat_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
		message  string
	}{
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			expected: ai.ErrRateLimited,
			message:  "Resource has been exhausted",
		},
		{
			name:     "payment required",
			status:   http.StatusPaymentRequired,
			body:     `{"error":{"code":402,"message":"billing required"}}`,
			expected: ai.ErrQuotaExceeded,
			message:  "billing required",
		},
		{
			name:     "server error with plain body",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			expected: ai.ErrUpstreamFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newRecordingServer(t, tt.status, tt.body)
			provider := New("test-key", WithBaseURL(server.URL))

			stream, err := provider.StreamChat(context.Background(), "", []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
			if stream != nil {
				t.Error("expected no stream on status failure")
			}
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}

			var upstreamErr *ai.UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected *ai.UpstreamError, got %T", err)
			}
			if upstreamErr.StatusCode != tt.status || upstreamErr.Message != tt.message {
				t.Errorf("unexpected upstream error %+v", upstreamErr)
			}
		})
	}
}

func TestProvider_StreamChat_TransportError(t *testing.T) {
	provider := New("test-key", WithBaseURL("http://127.0.0.1:1"))

	_, err := provider.StreamChat(context.Background(), "", []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	if !errors.Is(err, ai.ErrUpstreamFailure) {
		t.Fatalf("expected ErrUpstreamFailure, got %v", err)
	}
}

// TestProvider_GenerateImage_ExtractsTextAndImage verifies the image model
// request and the mapping of text and inline image into the result.
func TestProvider_GenerateImage_ExtractsTextAndImage(t *testing.T) {
	server := newRecordingServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[
		{"text":"A cat on a sofa."},
		{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}}
	]},"finishReason":"STOP"}]}`)
	provider := New("test-key", WithBaseURL(server.URL), WithImageModel("image-test"))

	result, err := provider.GenerateImage(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}

	if server.path != "/models/image-test:generateContent" {
		t.Errorf("unexpected endpoint %s", server.path)
	}
	config := server.request.GenerationConfig
	if config == nil || config.Temperature != 0.9 || config.MaxOutputTokens != 1024 {
		t.Errorf("unexpected generation config %+v", config)
	}
	if len(config.ResponseModalities) != 2 {
		t.Errorf("expected TEXT and IMAGE modalities, got %v", config.ResponseModalities)
	}
	if result.Content != "A cat on a sofa." {
		t.Errorf("unexpected content %q", result.Content)
	}
	if result.ImageURL != "data:image/png;base64,iVBORw0KGgo=" {
		t.Errorf("unexpected image url %q", result.ImageURL)
	}
}

func TestProvider_GenerateImage_FallbackText(t *testing.T) {
	server := newRecordingServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"AAAA"}}]}}]}`)
	provider := New("test-key", WithBaseURL(server.URL))

	result, err := provider.GenerateImage(context.Background(), "a beautiful image")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if result.Content != imageFallbackText {
		t.Errorf("expected fallback text, got %q", result.Content)
	}
}

// TestProvider_EditImage_SendsInlineImage verifies the prompt and the image
// travel as a text part followed by an inlineData part.
func TestProvider_EditImage_SendsInlineImage(t *testing.T) {
	server := newRecordingServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`)
	provider := New("test-key", WithBaseURL(server.URL))

	result, err := provider.EditImage(context.Background(), "make it blue", ai.DataURL{MimeType: "image/webp", Data: "UklGRg=="})
	if err != nil {
		t.Fatalf("EditImage returned error: %v", err)
	}

	parts := server.request.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "make it blue" {
		t.Fatalf("unexpected parts %+v", parts)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/webp" || parts[1].InlineData.Data != "UklGRg==" {
		t.Errorf("unexpected inline data %+v", parts[1].InlineData)
	}
	if server.request.GenerationConfig.MaxOutputTokens != 2048 {
		t.Errorf("expected edit token budget, got %d", server.request.GenerationConfig.MaxOutputTokens)
	}
	if result.Content != editFallbackText || result.ImageURL != "" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestProvider_GenerateImage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	provider := New("test-key", WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))

	_, err := provider.GenerateImage(context.Background(), "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !errors.Is(err, ai.ErrUpstreamFailure) {
		t.Errorf("expected ErrUpstreamFailure classification, got %v", err)
	}
}
