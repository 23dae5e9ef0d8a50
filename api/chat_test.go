package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knowassist/knowassist/internal/conversation"
	"github.com/knowassist/knowassist/internal/index"
	"github.com/knowassist/knowassist/internal/log"
	"github.com/knowassist/knowassist/internal/rag"
)

type mockAnswerer struct {
	resp rag.Response
	err  error

	lastReq rag.Request
	cleared []string
}

func (m *mockAnswerer) Answer(_ context.Context, req rag.Request) (rag.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return rag.Response{}, m.err
	}
	return m.resp, nil
}

func (m *mockAnswerer) Clear(id string) {
	m.cleared = append(m.cleared, id)
}

func testLogger() *slog.Logger {
	return log.NewNop()
}

func newChatMux(answerer Answerer) *http.ServeMux {
	mux := http.NewServeMux()
	NewChatHandler(answerer, testLogger()).RegisterRoutes(mux)
	return mux
}

func TestChatHandler_Answer(t *testing.T) {
	answerer := &mockAnswerer{
		resp: rag.Response{
			Answer:         "Go was announced in 2009.",
			ConversationID: "conv_abc123def456",
			Sources: []index.SearchResult{
				{Content: "Go was announced in 2009.", DocumentName: "go.txt", DocumentID: "doc_1", Similarity: 0.93},
			},
		},
	}
	mux := newChatMux(answerer)

	body := `{"question":"When was Go announced?","conversation_id":"conv_abc123def456","document_ids":["doc_1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	if answerer.lastReq.Question != "When was Go announced?" {
		t.Errorf("question = %q", answerer.lastReq.Question)
	}
	if answerer.lastReq.ConversationID != "conv_abc123def456" {
		t.Errorf("conversation id = %q", answerer.lastReq.ConversationID)
	}
	if len(answerer.lastReq.DocumentIDs) != 1 || answerer.lastReq.DocumentIDs[0] != "doc_1" {
		t.Errorf("document ids = %v", answerer.lastReq.DocumentIDs)
	}

	var resp rag.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "Go was announced in 2009." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].DocumentID != "doc_1" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestChatHandler_InvalidJSON(t *testing.T) {
	mux := newChatMux(&mockAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorCode(t, rec, "invalid_request")
}

func TestChatHandler_EmptyQuestion(t *testing.T) {
	mux := newChatMux(&mockAnswerer{err: rag.ErrEmptyQuestion})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"  "}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorCode(t, rec, "invalid_request")
}

func TestChatHandler_GenerationFailure(t *testing.T) {
	mux := newChatMux(&mockAnswerer{err: fmt.Errorf("%w: model unavailable", rag.ErrGeneration)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"hello"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	assertErrorCode(t, rec, "generation_failed")
}

func TestChatHandler_RetrievalFailure(t *testing.T) {
	mux := newChatMux(&mockAnswerer{err: fmt.Errorf("%w: db down", rag.ErrRetrieval)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"hello"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	assertErrorCode(t, rec, "retrieval_failed")
}

func TestChatHandler_ConversationVanished(t *testing.T) {
	mux := newChatMux(&mockAnswerer{err: fmt.Errorf("record question: %w", conversation.ErrNotFound)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"hello"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	assertErrorCode(t, rec, "not_found")
}

func TestChatHandler_UnexpectedFailure(t *testing.T) {
	mux := newChatMux(&mockAnswerer{err: errors.New("surprise")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"hello"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	assertErrorCode(t, rec, "internal_error")
}

func TestChatHandler_ClearConversation(t *testing.T) {
	answerer := &mockAnswerer{}
	mux := newChatMux(answerer)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/conversation/conv_abc123def456", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(answerer.cleared) != 1 || answerer.cleared[0] != "conv_abc123def456" {
		t.Errorf("cleared = %v", answerer.cleared)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["conversation_id"] != "conv_abc123def456" {
		t.Errorf("conversation_id = %q", resp["conversation_id"])
	}
}

func TestChatHandler_ClearUnknownConversation(t *testing.T) {
	answerer := &mockAnswerer{}
	mux := newChatMux(answerer)

	// Clearing is idempotent, so an unknown id still succeeds.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/conversation/conv_nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(answerer.cleared) != 1 || answerer.cleared[0] != "conv_nope" {
		t.Errorf("cleared = %v", answerer.cleared)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error != want {
		t.Errorf("error code = %q, want %q", resp.Error, want)
	}
}
