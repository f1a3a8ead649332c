// Package pgmemory implements [memory.Store] on PostgreSQL using pgx/v5.
//
// Conversations and messages live in two tables; deleting a conversation
// cascades to its messages. Appending a message and bumping the
// conversation's updated_at happen in a single statement, so a message is
// never stored for a conversation the caller does not own.
//
// The main entry point is [New], which accepts anything satisfying [Querier]
// (typically *pgxpool.Pool). [Store.EnsureSchema] creates the tables for
// development; production deployments should manage migrations with
// dedicated tooling.
package pgmemory
