package memory

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/stechy/chatrelay/providers/ai"
)

// ErrNotFound is returned when a conversation does not exist or belongs to
// another user.
var ErrNotFound = errors.New("memory: not found")

// MaxTitleLength is the number of characters kept from a conversation title.
const MaxTitleLength = 50

// DefaultTitle names conversations created without a title.
const DefaultTitle = "New Chat"

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoredMessage is a persisted message of a conversation.
type StoredMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Role           ai.Role   `json:"role"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewMessage is the input of Store.AppendMessage.
type NewMessage struct {
	Role     ai.Role `json:"role"`
	Content  string  `json:"content"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Validate rejects unknown roles and messages with neither text nor image.
func (m NewMessage) Validate() error {
	if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
		return ai.InvalidRequest("role must be user or assistant")
	}
	if m.Content == "" && m.ImageURL == "" {
		return ai.InvalidRequest("content must not be empty")
	}
	return nil
}

// Store persists conversations and their messages.
type Store interface {
	// ListConversations returns the user's conversations, most recently
	// updated first.
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)

	// CreateConversation starts an empty conversation. The title is passed
	// through NormalizeTitle.
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, userID string, id uuid.UUID) error

	// ListMessages returns a conversation's messages, oldest first.
	ListMessages(ctx context.Context, userID string, conversationID uuid.UUID) ([]StoredMessage, error)

	// AppendMessage adds a message and bumps the conversation's UpdatedAt.
	AppendMessage(ctx context.Context, userID string, conversationID uuid.UUID, message NewMessage) (*StoredMessage, error)
}

// NormalizeTitle trims title and cuts it to MaxTitleLength characters. A
// blank title becomes DefaultTitle.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	return strings.TrimSpace(string([]rune(title)[:MaxTitleLength]))
}
