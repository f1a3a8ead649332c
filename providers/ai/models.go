package ai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Mode is the requested operation. The zero value is ModeChat, so a request
// without a mode field is a plain chat.
type Mode int

const (
	ModeChat Mode = iota
	ModeImage
	ModeEdit
	ModeSummarize
	ModeTranslate
	ModeCode
)

var modeNames = [...]string{
	ModeChat:      "chat",
	ModeImage:     "image",
	ModeEdit:      "edit",
	ModeSummarize: "summarize",
	ModeTranslate: "translate",
	ModeCode:      "code",
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeChat, ModeImage, ModeEdit, ModeSummarize, ModeTranslate, ModeCode}
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= ModeChat && m <= ModeCode
}

// Streaming reports whether the mode answers with an event stream rather than
// a buffered JSON body.
func (m Mode) Streaming() bool {
	switch m {
	case ModeChat, ModeSummarize, ModeTranslate, ModeCode:
		return true
	default:
		return false
	}
}

// ParseMode maps a wire name to a Mode. The empty string is ModeChat; unknown
// names are an invalid request.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeChat, nil
	}
	for mode, name := range modeNames {
		if name == s {
			return Mode(mode), nil
		}
	}
	return ModeChat, InvalidRequest(fmt.Sprintf("unknown mode %q", s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(modeNames[m]), nil
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent by the client.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Mode        Mode      `json:"mode"`
	ImageToEdit string    `json:"imageToEdit,omitempty"`
}

// Validate checks the request shape for its mode. Every failure wraps
// ErrInvalidRequest.
func (r ChatRequest) Validate() error {
	if !r.Mode.Valid() {
		return InvalidRequest(fmt.Sprintf("unknown mode %d", int(r.Mode)))
	}
	if r.Mode.Streaming() && len(r.Messages) == 0 {
		return InvalidRequest("messages must not be empty")
	}
	for i, message := range r.Messages {
		if message.Role != RoleUser && message.Role != RoleAssistant {
			return InvalidRequest(fmt.Sprintf("messages[%d]: unsupported role %q", i, message.Role))
		}
	}
	if r.Mode == ModeEdit {
		if r.ImageToEdit == "" {
			return InvalidRequest("imageToEdit is required for edit mode")
		}
		if _, err := ParseDataURL(r.ImageToEdit); err != nil {
			return err
		}
	}
	return nil
}

// LastPrompt returns the content of the last message, or fallback when there
// are no messages or the last one is empty.
func (r ChatRequest) LastPrompt(fallback string) string {
	if len(r.Messages) == 0 {
		return fallback
	}
	if content := r.Messages[len(r.Messages)-1].Content; content != "" {
		return content
	}
	return fallback
}

// DefaultImageMimeType is assumed when a data URL omits its media type.
const DefaultImageMimeType = "image/jpeg"

// DataURL is a base64 data URL split into its media type and payload.
type DataURL struct {
	MimeType string
	Data     string
}

// ParseDataURL parses "data:<mime>;base64,<payload>". The payload must be
// valid standard base64.
func ParseDataURL(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURL{}, InvalidRequest("imageToEdit must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, InvalidRequest("imageToEdit data URL has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return DataURL{}, InvalidRequest("imageToEdit data URL must be base64 encoded")
	}
	if payload == "" {
		return DataURL{}, InvalidRequest("imageToEdit data URL has no payload")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return DataURL{}, InvalidRequest("imageToEdit payload is not valid base64")
	}
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return DataURL{MimeType: mimeType, Data: payload}, nil
}

func (d DataURL) String() string {
	return "data:" + d.MimeType + ";base64," + d.Data
}

// ImageResult is the buffered answer of the image and edit modes.
type ImageResult struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// StreamChunk is what a single upstream stream payload carries. Text is the
// concatenated text of the first candidate and may be empty.
type StreamChunk struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Usage is the token accounting reported by the upstream.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
