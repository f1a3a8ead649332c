package relay

import (
	"bytes"
	"encoding/json"
)

// FrameKind distinguishes content frames from the end-of-stream sentinel.
type FrameKind int

const (
	FrameContent FrameKind = iota
	FrameDone
)

// Frame is one downstream event.
type Frame struct {
	Kind    FrameKind
	Content string
}

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

type deltaEvent struct {
	Choices []deltaChoice `json:"choices"`
}

type deltaChoice struct {
	Delta deltaContent `json:"delta"`
	Index int          `json:"index"`
}

type deltaContent struct {
	Content string `json:"content"`
}

// frameEncoder renders frames into SSE records, reusing one buffer.
type frameEncoder struct {
	buf     bytes.Buffer
	encoder *json.Encoder
}

func newFrameEncoder() *frameEncoder {
	e := &frameEncoder{}
	e.encoder = json.NewEncoder(&e.buf)
	e.encoder.SetEscapeHTML(false)
	return e
}

// encode returns the wire bytes of frame. The slice is valid until the next call.
func (e *frameEncoder) encode(frame Frame) ([]byte, error) {
	e.buf.Reset()
	e.buf.WriteString("data: ")

	if frame.Kind == FrameDone {
		e.buf.WriteString(doneSentinel)
		e.buf.WriteString("\n\n")
		return e.buf.Bytes(), nil
	}

	event := deltaEvent{Choices: []deltaChoice{{Delta: deltaContent{Content: frame.Content}}}}
	if err := e.encoder.Encode(event); err != nil {
		return nil, err
	}
	// Encode terminated the object with one newline; SSE needs a blank line.
	e.buf.WriteByte('\n')
	return e.buf.Bytes(), nil
}

// EncodeFrame renders a single frame as an SSE record.
func EncodeFrame(frame Frame) ([]byte, error) {
	data, err := newFrameEncoder().encode(frame)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}
