package pgmemory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/observability"
)

// defaultTablePrefix is prepended to the table names when no prefix is given.
const defaultTablePrefix = "chatrelay_"

// Querier abstracts the pgx query methods needed by Store. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements [memory.Store] with PostgreSQL persistence. Concurrency is
// left to the connection pool.
type Store struct {
	db Querier

	conversationsTable string
	messagesTable      string
	conversationsIndex string
	messagesIndex      string
}

var _ memory.Store = (*Store)(nil)

// Option configures optional Store behavior.
type Option func(*Store)

// WithTablePrefix replaces the default "chatrelay_" table prefix. The
// resulting names are quoted with pgx.Identifier since they are interpolated
// into queries.
func WithTablePrefix(prefix string) Option {
	return func(s *Store) {
		s.setTables(prefix, true)
	}
}

// New creates a store on db, typically a *pgxpool.Pool.
func New(db Querier, opts ...Option) *Store {
	store := &Store{db: db}
	store.setTables(defaultTablePrefix, false)
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) setTables(prefix string, quote bool) {
	name := func(raw string) string {
		if quote {
			return pgx.Identifier{raw}.Sanitize()
		}
		return raw
	}
	s.conversationsTable = name(prefix + "conversations")
	s.messagesTable = name(prefix + "messages")
	s.conversationsIndex = name("idx_" + prefix + "conversations_user_updated")
	s.messagesIndex = name("idx_" + prefix + "messages_conversation_seq")
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]memory.Conversation, error) {
	query := fmt.Sprintf(`SELECT id, user_id, title, created_at, updated_at
		FROM %s WHERE user_id = $1 ORDER BY updated_at DESC, created_at DESC`, s.conversationsTable)

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []memory.Conversation{}
	for rows.Next() {
		var c memory.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgmemory: scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate conversations: %w", err)
	}
	return conversations, nil
}

func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*memory.Conversation, error) {
	conversation := &memory.Conversation{
		ID:     uuid.New(),
		UserID: userID,
		Title:  memory.NormalizeTitle(title),
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`, s.conversationsTable)

	err := s.db.QueryRow(ctx, query, conversation.ID, conversation.UserID, conversation.Title).
		Scan(&conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: create conversation: %w", err)
	}
	return conversation, nil
}

// DeleteConversation removes the conversation; its messages go with it via
// ON DELETE CASCADE.
func (s *Store) DeleteConversation(ctx context.Context, userID string, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, s.conversationsTable)

	tag, err := s.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("pgmemory: delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return memory.ErrNotFound
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string, conversationID uuid.UUID) ([]memory.StoredMessage, error) {
	if err := s.checkOwner(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, conversation_id, role, content, image_url, created_at
		FROM %s WHERE conversation_id = $1 ORDER BY seq ASC`, s.messagesTable)

	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: list messages: %w", err)
	}
	defer rows.Close()

	messages := []memory.StoredMessage{}
	for rows.Next() {
		var (
			message  memory.StoredMessage
			role     string
			imageURL *string
		)
		if err := rows.Scan(&message.ID, &message.ConversationID, &role, &message.Content, &imageURL, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgmemory: scan message: %w", err)
		}
		message.Role = ai.Role(role)
		message.ImageURL = derefString(imageURL)
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate messages: %w", err)
	}
	return messages, nil
}

// AppendMessage inserts the message only if the conversation belongs to
// userID, bumping updated_at in the same statement.
func (s *Store) AppendMessage(ctx context.Context, userID string, conversationID uuid.UUID, message memory.NewMessage) (*memory.StoredMessage, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`WITH owner AS (
			UPDATE %[1]s SET updated_at = NOW()
			WHERE id = $2 AND user_id = $3
			RETURNING id
		)
		INSERT INTO %[2]s (id, conversation_id, role, content, image_url)
		SELECT $1, owner.id, $4, $5, $6 FROM owner
		RETURNING created_at`, s.conversationsTable, s.messagesTable)

	stored := &memory.StoredMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           message.Role,
		Content:        message.Content,
		ImageURL:       message.ImageURL,
	}

	var createdAt time.Time
	err := s.db.QueryRow(ctx, query,
		stored.ID,
		conversationID,
		userID,
		string(message.Role),
		message.Content,
		nullableString(message.ImageURL),
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgmemory: append message: %w", err)
	}
	stored.CreatedAt = createdAt

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventStoreAppend,
			observability.String(observability.AttrStoreBackend, "postgres"),
			observability.String(observability.AttrStoreConversationID, conversationID.String()),
			observability.String(observability.AttrStoreMessageRole, string(message.Role)),
		)
	}
	return stored, nil
}

func (s *Store) checkOwner(ctx context.Context, userID string, conversationID uuid.UUID) error {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND user_id = $2)`, s.conversationsTable)

	var exists bool
	if err := s.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return fmt.Errorf("pgmemory: check owner: %w", err)
	}
	if !exists {
		return memory.ErrNotFound
	}
	return nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
