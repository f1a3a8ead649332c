// Command chatrelay serves the chat relay: POST /chat in front of Gemini plus
// the conversation store API.
//
// Configuration comes from the environment and an optional .env file in the
// working directory; see package config for the variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stechy/chatrelay/core/config"
	"github.com/stechy/chatrelay/core/router"
	"github.com/stechy/chatrelay/core/server"
	"github.com/stechy/chatrelay/providers/ai/gemini"
	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/memory/inmemory"
	"github.com/stechy/chatrelay/providers/memory/pgmemory"
	"github.com/stechy/chatrelay/providers/observability"
	"github.com/stechy/chatrelay/providers/observability/slogobs"
)

func main() {
	if err := run(); err != nil {
		slog.Error("chatrelay failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observer := slogobs.New(cfg.Log.ObserverOptions()...)
	defer observer.Close()
	slog.SetDefault(observer.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.DatabaseURL, observer)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Gemini.APIKey == "" {
		observer.Warn(ctx, "GEMINI_API_KEY is not set, chat requests will fail until it is configured")
	}
	provider := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.GeminiOptions()...)

	srv := server.New(router.New(provider),
		server.WithStore(store),
		server.WithObserver(observer),
	)
	return srv.ListenAndServe(ctx, cfg.Addr)
}

// openStore connects to PostgreSQL when databaseURL is set and falls back to
// the in-memory store otherwise. The returned func releases the pool.
func openStore(ctx context.Context, databaseURL string, observer observability.Provider) (memory.Store, func(), error) {
	if databaseURL == "" {
		observer.Info(ctx, "Using in-memory conversation store")
		return inmemory.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	store := pgmemory.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	observer.Info(ctx, "Using PostgreSQL conversation store")
	return store, pool.Close, nil
}
