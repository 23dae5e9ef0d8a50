package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knowassist/knowassist/internal/conversation"
	"github.com/knowassist/knowassist/internal/rag"
)

// Answerer is the question-answering capability the chat endpoints need.
type Answerer interface {
	Answer(ctx context.Context, req rag.Request) (rag.Response, error)
	Clear(id string)
}

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	answerer Answerer
	logger   *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(answerer Answerer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{answerer: answerer, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat", h.chat)
	mux.HandleFunc("DELETE /api/v1/chat/conversation/{id}", h.clearConversation)
}

// ChatRequest is one question, optionally continuing a conversation and
// optionally scoped to specific documents.
type ChatRequest struct {
	Question       string   `json:"question"`
	ConversationID string   `json:"conversation_id,omitempty"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON", h.logger)
		return
	}

	resp, err := h.answerer.Answer(r.Context(), rag.Request{
		Question:       req.Question,
		ConversationID: req.ConversationID,
		DocumentIDs:    req.DocumentIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, "invalid_request", "question cannot be empty", h.logger)
		case errors.Is(err, conversation.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		case errors.Is(err, rag.ErrRetrieval):
			h.logger.Error("retrieval failed", "error", err)
			writeError(w, http.StatusBadGateway, "retrieval_failed", "failed to search the document index", h.logger)
		case errors.Is(err, rag.ErrGeneration):
			h.logger.Error("generation failed", "error", err)
			writeError(w, http.StatusBadGateway, "generation_failed", "failed to generate an answer", h.logger)
		default:
			h.logger.Error("answering failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// clearConversation is idempotent: clearing an unknown conversation
// succeeds without effect.
func (h *ChatHandler) clearConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.answerer.Clear(id)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "conversation cleared",
		"conversation_id": id,
	}, h.logger)
}
