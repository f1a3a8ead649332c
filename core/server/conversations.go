package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stechy/chatrelay/providers/memory"
	"github.com/stechy/chatrelay/providers/observability"
)

// userIDHeader carries the authenticated user, set by the fronting auth
// layer.
const userIDHeader = "X-User-Id"

type createConversationRequest struct {
	Title string `json:"title"`
}

// storeContext starts a store span and resolves the caller. It fails with
// errMissingUser when the header is absent.
func (s *Server) storeContext(r *http.Request, operation string) (context.Context, observability.Span, string, error) {
	ctx := observability.ContextWithObserver(r.Context(), s.observer)
	ctx, span := s.observer.StartSpan(ctx, observability.SpanStoreOperation,
		observability.String(observability.AttrHTTPRoute, r.Pattern),
		observability.String(observability.AttrStoreOperation, operation),
	)

	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		return ctx, span, "", errMissingUser
	}
	return ctx, span, userID, nil
}

// conversationID parses the {id} path value. Malformed IDs cannot name an
// existing conversation, so they are reported as not found.
func conversationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, memory.ErrNotFound
	}
	return id, nil
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx, span, userID, err := s.storeContext(r, "list_conversations")
	defer span.End()
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	conversations, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	ctx, span, userID, err := s.storeContext(r, "create_conversation")
	defer span.End()
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	var request createConversationRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	conversation, err := s.store.CreateConversation(ctx, userID, request.Title)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}
	span.SetAttributes(observability.String(observability.AttrStoreConversationID, conversation.ID.String()))
	writeJSON(w, http.StatusCreated, conversation)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx, span, userID, err := s.storeContext(r, "delete_conversation")
	defer span.End()
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	id, err := conversationID(r)
	if err == nil {
		err = s.store.DeleteConversation(ctx, userID, id)
	}
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx, span, userID, err := s.storeContext(r, "list_messages")
	defer span.End()
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	id, err := conversationID(r)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	messages, err := s.store.ListMessages(ctx, userID, id)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}
	span.SetAttributes(observability.Int(observability.AttrStoreMessagesCount, len(messages)))
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span, userID, err := s.storeContext(r, "append_message")
	defer span.End()
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	id, err := conversationID(r)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	var message memory.NewMessage
	if err := decodeBody(w, r, &message); err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}

	stored, err := s.store.AppendMessage(ctx, userID, id, message)
	if err != nil {
		s.writeError(ctx, w, err, msgStoreFailure)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
