package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stechy/chatrelay/core/relay"
	"github.com/stechy/chatrelay/core/router"
	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/memory/inmemory"
	"github.com/stechy/chatrelay/providers/observability"
)

const (
	// maxBodySize bounds request bodies; edit requests carry a whole image
	// as a data URL.
	maxBodySize = 20 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server owns the HTTP routes.
type Server struct {
	router   *router.Router
	relay    *relay.Relay
	store    memory.Store
	observer observability.Provider
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the conversation store. Defaults to an in-memory store.
func WithStore(store memory.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithObserver sets the observability provider. Defaults to a no-op.
func WithObserver(observer observability.Provider) Option {
	return func(s *Server) {
		s.observer = observer
	}
}

// WithRelayOptions configures the stream relay.
func WithRelayOptions(opts ...relay.Option) Option {
	return func(s *Server) {
		s.relay = relay.New(s.router.Provider(), opts...)
	}
}

// New builds a server around r. The relay decodes streams with r's provider.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router: r,
		relay:  relay.New(r.Provider()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = inmemory.New()
	}
	if s.observer == nil {
		s.observer = observability.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /conversations", s.handleListConversations)
	mux.HandleFunc("POST /conversations", s.handleCreateConversation)
	mux.HandleFunc("DELETE /conversations/{id}", s.handleDeleteConversation)
	mux.HandleFunc("GET /conversations/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /conversations/{id}/messages", s.handleAppendMessage)

	s.handler = s.withLogging(withCORS(mux))
	return s
}

// Handler returns the root handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on addr and serves until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done. In-flight streams get
// shutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.observer.Info(ctx, "Server listening", observability.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.observer.Info(ctx, "Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// decodeBody decodes a JSON body into v. Syntax errors and oversized bodies
// become InvalidRequest; validation errors raised while decoding, such as an
// unknown mode, keep their own reason.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, ai.ErrInvalidRequest):
			return err
		case errors.As(err, &tooLarge):
			return ai.InvalidRequest("request body too large")
		default:
			return ai.InvalidRequest("malformed JSON body")
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
