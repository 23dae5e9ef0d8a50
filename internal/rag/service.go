// Package rag orchestrates retrieval-augmented answers: it pulls the most
// relevant chunks from the index, folds in conversation history, prompts
// the model, and records the exchange.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knowassist/knowassist/internal/conversation"
	"github.com/knowassist/knowassist/internal/index"
)

// Pipeline errors. Callers match with errors.Is to tell which stage
// failed.
var (
	// ErrEmptyQuestion reports a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrRetrieval tags failures while searching the index.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration tags failures while generating the answer.
	ErrGeneration = errors.New("generation failed")
)

// Searcher is the retrieval capability the service needs from the index.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...index.SearchOption) ([]index.SearchResult, error)
}

// Request is one question against the indexed documents.
type Request struct {
	// Question is the user's query.
	Question string
	// ConversationID continues an existing conversation when set; empty
	// starts a new one.
	ConversationID string
	// DocumentIDs restricts retrieval to the given documents when
	// non-empty.
	DocumentIDs []string
}

// Response carries the generated answer with its provenance.
type Response struct {
	Answer         string               `json:"answer"`
	ConversationID string               `json:"conversation_id"`
	MessageID      string               `json:"message_id"`
	Sources        []index.SearchResult `json:"sources"`
}

// Service answers questions over the document index.
type Service struct {
	searcher      Searcher
	conversations *conversation.Store
	generator     Generator
	topK          int
	logger        *slog.Logger
}

// New creates a Service. topK values below 1 fall back to the index
// default.
func New(searcher Searcher, conversations *conversation.Store, generator Generator, topK int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		searcher:      searcher,
		conversations: conversations,
		generator:     generator,
		topK:          topK,
		logger:        logger,
	}
}

// Answer runs the full pipeline for one question: resolve the
// conversation, load its history, retrieve relevant chunks, generate the
// answer, and append both turns to the history.
//
// The history is only written after generation succeeds, so a failed
// request leaves the conversation exactly as it was.
func (s *Service) Answer(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}

	convID, created := s.conversations.GetOrCreate(req.ConversationID)
	if created {
		s.logger.Debug("started conversation", "conversation_id", convID)
	}

	history := s.conversations.History(convID)

	opts := []index.SearchOption{index.WithTopK(s.topK)}
	if len(req.DocumentIDs) > 0 {
		opts = append(opts, index.WithDocumentFilter(req.DocumentIDs))
	}
	results, err := s.searcher.Search(ctx, question, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	answer, err := s.generator.Generate(ctx, buildSystem(results), buildMessages(history, question))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if _, err := s.conversations.Append(convID, conversation.RoleUser, question); err != nil {
		return Response{}, fmt.Errorf("record question: %w", err)
	}
	answerMsg, err := s.conversations.Append(convID, conversation.RoleAssistant, answer)
	if err != nil {
		return Response{}, fmt.Errorf("record answer: %w", err)
	}

	s.logger.Debug("answered question",
		"conversation_id", convID,
		"sources", len(results),
		"filtered", len(req.DocumentIDs) > 0)

	return Response{
		Answer:         answer,
		ConversationID: convID,
		MessageID:      answerMsg.ID,
		Sources:        results,
	}, nil
}

// Clear drops a conversation's history. Clearing an unknown conversation
// is a no-op.
func (s *Service) Clear(id string) {
	s.conversations.Clear(id)
}
