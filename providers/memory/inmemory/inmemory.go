package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/observability"
)

type conversation struct {
	memory.Conversation
	// seq breaks UpdatedAt ties so ordering is stable.
	seq      uint64
	messages []memory.StoredMessage
}

// Store keeps conversations in a map guarded by an RWMutex.
type Store struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversation
	seq           uint64
	now           func() time.Time
}

var _ memory.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*conversation),
		now:           time.Now,
	}
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]memory.Conversation, error) {
	s.mu.RLock()
	owned := make([]*conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if c.UserID == userID {
			owned = append(owned, c)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(owned, func(a, b *conversation) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]memory.Conversation, len(owned))
	for i, c := range owned {
		out[i] = c.Conversation
	}
	return out, nil
}

func (s *Store) CreateConversation(_ context.Context, userID, title string) (*memory.Conversation, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	c := &conversation{
		Conversation: memory.Conversation{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     memory.NormalizeTitle(title),
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.seq,
	}
	s.conversations[c.ID] = c

	out := c.Conversation
	return &out, nil
}

func (s *Store) DeleteConversation(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	delete(s.conversations, id)
	return nil
}

// ListMessages returns a copy, so callers cannot mutate the stored thread.
func (s *Store) ListMessages(_ context.Context, userID string, conversationID uuid.UUID) ([]memory.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.owned(userID, conversationID)
	if err != nil {
		return nil, err
	}
	return append(make([]memory.StoredMessage, 0, len(c.messages)), c.messages...), nil
}

// AppendMessage records a store.append event on the span in ctx, if any.
func (s *Store) AppendMessage(ctx context.Context, userID string, conversationID uuid.UUID, message memory.NewMessage) (*memory.StoredMessage, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	s.mu.Lock()
	c, err := s.owned(userID, conversationID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	stored := memory.StoredMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           message.Role,
		Content:        message.Content,
		ImageURL:       message.ImageURL,
		CreatedAt:      now,
	}
	c.messages = append(c.messages, stored)
	s.seq++
	c.seq = s.seq
	c.UpdatedAt = now
	total := len(c.messages)
	s.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventStoreAppend,
			observability.String(observability.AttrStoreBackend, "inmemory"),
			observability.String(observability.AttrStoreMessageRole, string(message.Role)),
			observability.Int(observability.AttrStoreMessagesCount, total),
		)
	}
	return &stored, nil
}

// owned must be called with s.mu held.
func (s *Store) owned(userID string, id uuid.UUID) (*conversation, error) {
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, memory.ErrNotFound
	}
	return c, nil
}
