// Package memory defines the conversation store behind the /conversations
// API: a user's conversation list and each conversation's message thread.
// Every operation is scoped to a user ID; a conversation owned by someone
// else is indistinguishable from a missing one and yields [ErrNotFound].
//
// Two implementations ship with the module: [inmemory] for development and
// tests, and [pgmemory] for PostgreSQL.
//
// [inmemory]: github.com/stechy/chatrelay/providers/memory/inmemory
// [pgmemory]: github.com/stechy/chatrelay/providers/memory/pgmemory
package memory
