package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stechy/chatrelay/internal/utils"
	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/observability"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"

	// DefaultTimeout bounds buffered image calls. Streams are bounded only by
	// the caller's context.
	DefaultTimeout = 60 * time.Second

	providerName = "gemini"
	apiKeyHeader = "x-goog-api-key"
)

// Provider talks to the Gemini REST API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	imageModel string
	client     *http.Client
	timeout    time.Duration
}

var _ ai.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API root, e.g. for a proxy or a test server.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModel sets the model used for chat modes.
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithImageModel sets the model used for image generation and editing.
func WithImageModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.imageModel = model
		}
	}
}

// WithHttpClient sets the HTTP client used for outbound requests.
func WithHttpClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithTimeout bounds buffered calls. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		p.timeout = timeout
	}
}

// New creates a provider authenticating with apiKey. An empty key is accepted
// here; every call then fails with ai.ErrConfiguration before any I/O.
func New(apiKey string, opts ...Option) *Provider {
	provider := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		imageModel: DefaultImageModel,
		client:     &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

func (p *Provider) Name() string {
	return providerName
}

// StreamChat starts streamGenerateContent and returns the SSE body. The
// caller must close it. Upstream status failures are returned as
// *ai.UpstreamError before the stream is handed out.
func (p *Provider) StreamChat(ctx context.Context, systemPrompt string, messages []ai.Message) (io.ReadCloser, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrConfiguration)
	}

	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, "streamGenerateContent"),
			observability.String(observability.AttrLLMModel, p.model),
		)
	}
	observer.Trace(ctx, "Gemini provider preparing streaming request",
		observability.String(observability.AttrLLMModel, p.model),
		observability.Int(observability.AttrChatMessagesCount, len(messages)),
	)

	response, err := utils.DoPostStream(
		ctx,
		p.client,
		p.endpoint(p.model, "streamGenerateContent")+"?alt=sse",
		chatRequest(systemPrompt, messages),
		utils.HeaderOption{Key: apiKeyHeader, Value: p.apiKey},
	)
	if err != nil {
		return nil, p.wrapError(ctx, "stream chat", err)
	}
	return response.Body, nil
}

// GenerateImage asks the image model for an image of prompt.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*ai.ImageResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrConfiguration)
	}
	response, err := p.generate(ctx, p.imageModel, imageRequest(prompt))
	if err != nil {
		return nil, p.wrapError(ctx, "generate image", err)
	}
	return toImageResult(response, imageFallbackText), nil
}

// EditImage sends prompt together with image to the image model.
func (p *Provider) EditImage(ctx context.Context, prompt string, image ai.DataURL) (*ai.ImageResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrConfiguration)
	}
	response, err := p.generate(ctx, p.imageModel, editRequest(prompt, image))
	if err != nil {
		return nil, p.wrapError(ctx, "edit image", err)
	}
	return toImageResult(response, editFallbackText), nil
}

// generate performs one buffered generateContent call.
func (p *Provider) generate(ctx context.Context, model string, request generateContentRequest) (*generateContentResponse, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, "generateContent"),
			observability.String(observability.AttrLLMModel, model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	_, response, err := utils.DoPostSync[generateContentResponse](
		ctx,
		p.client,
		p.endpoint(model, "generateContent"),
		request,
		utils.HeaderOption{Key: apiKeyHeader, Value: p.apiKey},
	)
	if err != nil {
		return nil, err
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		observability.ObserverFromContext(ctx).Warn(ctx, "Gemini blocked the prompt",
			observability.String(observability.AttrLLMFinishReason, response.PromptFeedback.BlockReason),
		)
	}
	if span != nil && response.UsageMetadata != nil {
		span.SetAttributes(
			observability.Int(observability.AttrLLMTokensPrompt, response.UsageMetadata.PromptTokenCount),
			observability.Int(observability.AttrLLMTokensCompletion, response.UsageMetadata.CandidatesTokenCount),
			observability.Int(observability.AttrLLMTokensTotal, response.UsageMetadata.TotalTokenCount),
		)
	}
	return response, nil
}

func (p *Provider) endpoint(model, method string) string {
	return fmt.Sprintf("%s/models/%s:%s", p.baseURL, model, method)
}

// wrapError turns helper errors into the ai taxonomy. Status failures become
// *ai.UpstreamError; the body is logged here and goes no further.
func (p *Provider) wrapError(ctx context.Context, op string, err error) error {
	observer := observability.ObserverFromContext(ctx)

	var statusErr *utils.HTTPStatusError
	if errors.As(err, &statusErr) {
		message, status := utils.ErrorMessage(statusErr.Body)
		observer.Warn(ctx, "Gemini request failed",
			observability.String("operation", op),
			observability.Int(observability.AttrHTTPStatusCode, statusErr.StatusCode),
			observability.String(observability.AttrLLMStatus, status),
			observability.String("body", utils.TruncateStringDefault(string(statusErr.Body))),
		)
		return &ai.UpstreamError{
			Provider:   providerName,
			StatusCode: statusErr.StatusCode,
			Status:     status,
			Message:    message,
			Body:       statusErr.Body,
		}
	}

	observer.Warn(ctx, "Gemini request failed",
		observability.String("operation", op),
		observability.Error(err),
	)
	return fmt.Errorf("%w: gemini %s: %w", ai.ErrUpstreamFailure, op, err)
}
