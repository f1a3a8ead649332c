// Package inmemory provides a concurrency-safe, process-local implementation
// of [memory.Store]. Data is lost on restart; it backs the server when no
// database is configured.
package inmemory
