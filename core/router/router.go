package router

import (
	"context"
	"fmt"
	"io"

	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/observability"
)

// Result is the outcome of a routed request: exactly one of Stream and Image
// is set.
type Result struct {
	Mode ai.Mode

	// Stream is the provider's raw event stream for streaming modes. The
	// caller closes it.
	Stream io.ReadCloser

	// Image is the buffered answer of the image modes.
	Image *ai.ImageResult
}

// Router maps each mode to one handler.
type Router struct {
	provider ai.Provider
}

// New returns a Router issuing upstream calls through provider.
func New(provider ai.Provider) *Router {
	return &Router{provider: provider}
}

// Provider returns the upstream provider, whose StreamDecoder understands
// Result.Stream.
func (r *Router) Provider() ai.Provider {
	return r.provider
}

// Route validates request and issues its upstream call. Invalid requests
// fail with ai.ErrInvalidRequest and no upstream call.
func (r *Router) Route(ctx context.Context, request ai.ChatRequest) (Result, error) {
	if err := request.Validate(); err != nil {
		return Result{}, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrChatMode, request.Mode.String()),
			observability.Int(observability.AttrChatMessagesCount, len(request.Messages)),
			observability.Bool(observability.AttrChatStreaming, request.Mode.Streaming()),
		)
	}

	switch request.Mode {
	case ai.ModeEdit:
		return r.edit(ctx, request)
	case ai.ModeImage:
		return r.image(ctx, request)
	case ai.ModeSummarize:
		return r.summarize(ctx, request)
	case ai.ModeChat, ai.ModeTranslate, ai.ModeCode:
		return r.stream(ctx, request.Mode, request.Messages)
	default:
		return Result{}, ai.InvalidRequest(fmt.Sprintf("unsupported mode %s", request.Mode))
	}
}

func (r *Router) edit(ctx context.Context, request ai.ChatRequest) (Result, error) {
	image, err := ai.ParseDataURL(request.ImageToEdit)
	if err != nil {
		return Result{}, err
	}

	result, err := r.provider.EditImage(ctx, request.LastPrompt(defaultEditPrompt), image)
	if err != nil {
		return Result{}, fmt.Errorf("edit image: %w", err)
	}
	return Result{Mode: ai.ModeEdit, Image: result}, nil
}

func (r *Router) image(ctx context.Context, request ai.ChatRequest) (Result, error) {
	result, err := r.provider.GenerateImage(ctx, request.LastPrompt(defaultImagePrompt))
	if err != nil {
		return Result{}, fmt.Errorf("generate image: %w", err)
	}
	return Result{Mode: ai.ModeImage, Image: result}, nil
}

func (r *Router) summarize(ctx context.Context, request ai.ChatRequest) (Result, error) {
	return r.stream(ctx, ai.ModeSummarize, normalizeForSummary(ctx, request.Messages))
}

func (r *Router) stream(ctx context.Context, mode ai.Mode, messages []ai.Message) (Result, error) {
	stream, err := r.provider.StreamChat(ctx, SystemPrompt(mode), messages)
	if err != nil {
		return Result{}, fmt.Errorf("%s stream: %w", mode, err)
	}
	return Result{Mode: mode, Stream: stream}, nil
}
