package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knowassist/knowassist/internal/index"
)

// DocumentStore is the registry capability the documents endpoints need.
type DocumentStore interface {
	List(ctx context.Context) ([]index.Document, error)
	Get(ctx context.Context, id string) (index.Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentsHandler serves the document registry endpoints.
type DocumentsHandler struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewDocumentsHandler creates a documents handler.
func NewDocumentsHandler(store DocumentStore, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{store: store, logger: logger}
}

// RegisterRoutes registers document routes on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/documents", h.list)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.get)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.delete)
}

// ListDocumentsResponse wraps the document list.
type ListDocumentsResponse struct {
	Documents []index.Document `json:"documents"`
	Count     int              `json:"count"`
}

func (h *DocumentsHandler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list documents", h.logger)
		return
	}
	if docs == nil {
		docs = []index.Document{}
	}
	writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: docs, Count: len(docs)}, h.logger)
}

func (h *DocumentsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "document not found", h.logger)
			return
		}
		h.logger.Error("fetching document failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get_failed", "failed to fetch document", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, doc, h.logger)
}

func (h *DocumentsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "document not found", h.logger)
			return
		}
		h.logger.Error("deleting document failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete document", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "document deleted",
		"document_id": id,
	}, h.logger)
}
