package pgmemory

import (
	"context"
	"fmt"
)

// createConversationsSQL is the DDL for the conversations table.
const createConversationsSQL = `CREATE TABLE IF NOT EXISTS %s (
    id         UUID PRIMARY KEY,
    user_id    TEXT NOT NULL,
    title      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// createConversationsIndexSQL backs ListConversations.
const createConversationsIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (user_id, updated_at DESC)`

// createMessagesSQL is the DDL for the messages table. The seq column keeps
// insertion order for messages created within the same microsecond.
const createMessagesSQL = `CREATE TABLE IF NOT EXISTS %s (
    id              UUID PRIMARY KEY,
    seq             BIGSERIAL NOT NULL,
    conversation_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
    role            TEXT NOT NULL,
    content         TEXT NOT NULL DEFAULT '',
    image_url       TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// createMessagesIndexSQL backs ListMessages.
const createMessagesIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (conversation_id, seq)`

// EnsureSchema creates both tables and their indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"conversations table", fmt.Sprintf(createConversationsSQL, s.conversationsTable)},
		{"conversations index", fmt.Sprintf(createConversationsIndexSQL, s.conversationsIndex, s.conversationsTable)},
		{"messages table", fmt.Sprintf(createMessagesSQL, s.messagesTable, s.conversationsTable)},
		{"messages index", fmt.Sprintf(createMessagesIndexSQL, s.messagesIndex, s.messagesTable)},
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(ctx, statement.sql); err != nil {
			return fmt.Errorf("pgmemory: create %s: %w", statement.name, err)
		}
	}
	return nil
}
