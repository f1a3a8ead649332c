package ai

import (
	"context"
	"io"
)

// Provider is an upstream model API as seen by the router.
type Provider interface {
	StreamDecoder

	// Name identifies the provider in logs.
	Name() string

	// StreamChat starts a streaming completion and returns the provider's raw
	// event stream. Status failures are reported here, before any byte of the
	// stream is read. The caller closes the stream.
	StreamChat(ctx context.Context, systemPrompt string, messages []Message) (io.ReadCloser, error)

	// GenerateImage asks for an image and a short description of it.
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)

	// EditImage applies prompt to image and returns the result.
	EditImage(ctx context.Context, prompt string, image DataURL) (*ImageResult, error)
}

// StreamDecoder decodes one data payload of a provider event stream.
type StreamDecoder interface {
	DecodeChunk(payload []byte) (StreamChunk, error)
}
