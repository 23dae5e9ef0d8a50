// Package index stores document chunks with vector embeddings and serves
// similarity search over them, backed by PostgreSQL with pgvector.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/knowassist/knowassist/internal/chunker"
	"github.com/knowassist/knowassist/internal/sqlc"
)

// ErrNotFound reports a document ID with no registry entry.
var ErrNotFound = errors.New("document not found")

// Querier is the subset of database operations the store needs. Defined
// here, by the consumer, so tests can substitute a mock.
type Querier interface {
	CreateDocument(ctx context.Context, arg sqlc.CreateDocumentParams) (sqlc.Document, error)
	DeleteDocument(ctx context.Context, id string) (int64, error)
	GetDocument(ctx context.Context, id string) (sqlc.Document, error)
	InsertChunk(ctx context.Context, arg sqlc.InsertChunkParams) error
	ListDocuments(ctx context.Context) ([]sqlc.Document, error)
	SearchChunks(ctx context.Context, arg sqlc.SearchChunksParams) ([]sqlc.SearchChunksRow, error)
	SearchChunksFiltered(ctx context.Context, arg sqlc.SearchChunksFilteredParams) ([]sqlc.SearchChunksFilteredRow, error)
}

// Store indexes chunked documents and answers similarity queries.
// Safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:     pool,
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Insert embeds the chunks in one batch and writes the document registry
// row plus all chunk rows in a single transaction, so a concurrent search
// never observes a half-written document.
func (s *Store) Insert(ctx context.Context, id, filename string, byteSize int64, chunks []chunker.Chunk) (Document, error) {
	if len(chunks) == 0 {
		return Document{}, fmt.Errorf("document %q has no chunks", id)
	}

	// Embed outside the transaction so no connection is held during the
	// provider call.
	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return Document{}, err
	}

	// If pool is nil (testing with mock), use non-transactional mode.
	if s.pool == nil {
		return s.insertRows(ctx, s.queries, id, filename, byteSize, chunks, embeddings)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("insert transaction rollback", "error", rbErr)
		}
	}()

	doc, err := s.insertRows(ctx, sqlc.New(tx), id, filename, byteSize, chunks, embeddings)
	if err != nil {
		return Document{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Document{}, fmt.Errorf("commit document %q: %w", id, err)
	}

	s.logger.Debug("indexed document", "id", id, "filename", filename, "chunks", len(chunks))
	return doc, nil
}

func (s *Store) insertRows(ctx context.Context, q Querier, id, filename string, byteSize int64, chunks []chunker.Chunk, embeddings [][]float32) (Document, error) {
	doc, err := q.CreateDocument(ctx, sqlc.CreateDocumentParams{
		ID:        id,
		Filename:  filename,
		ByteSize:  byteSize,
		NumChunks: int32(len(chunks)),
	})
	if err != nil {
		return Document{}, fmt.Errorf("create document %q: %w", id, err)
	}

	for i, c := range chunks {
		page := pgtype.Int4{}
		if c.Page > 0 {
			page = pgtype.Int4{Int32: int32(c.Page), Valid: true}
		}
		err := q.InsertChunk(ctx, sqlc.InsertChunkParams{
			DocumentID: id,
			ChunkIndex: int32(c.Index),
			Page:       page,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(embeddings[i]),
		})
		if err != nil {
			return Document{}, fmt.Errorf("insert chunk %d of document %q: %w", c.Index, id, err)
		}
	}

	return toDocument(doc), nil
}

// embedChunks sends all chunk contents in a single embed request.
func (s *Store) embedChunks(ctx context.Context, chunks []chunker.Chunk) ([][]float32, error) {
	input := make([]*ai.Document, len(chunks))
	for i, c := range chunks {
		input[i] = ai.DocumentFromText(c.Content, nil)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(resp.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d chunks", len(resp.Embeddings), len(chunks))
	}

	embeddings := make([][]float32, len(chunks))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for chunk %d", i)
		}
		embeddings[i] = e.Embedding
	}
	return embeddings, nil
}

// Search embeds the query and returns the closest chunks by cosine
// distance, most similar first. Results are deterministic: ties on
// distance fall back to insertion order.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	resp, err := s.embedder.Embed(queryCtx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned for query")
	}
	queryEmbedding := pgvector.NewVector(resp.Embeddings[0].Embedding)

	if len(cfg.filterIDs) > 0 {
		rows, err := s.queries.SearchChunksFiltered(queryCtx, sqlc.SearchChunksFilteredParams{
			Embedding:   queryEmbedding,
			DocumentIds: cfg.filterIDs,
			MaxRows:     int64(cfg.topK),
		})
		if err != nil {
			return nil, fmt.Errorf("filtered search: %w", err)
		}
		results := make([]SearchResult, len(rows))
		for i, row := range rows {
			results[i] = SearchResult{
				Content:      row.Content,
				DocumentName: row.Filename,
				DocumentID:   row.DocumentID,
				Page:         int(row.Page.Int32),
				ChunkIndex:   int(row.ChunkIndex),
				Similarity:   distanceToSimilarity(row.Distance),
			}
		}
		return results, nil
	}

	rows, err := s.queries.SearchChunks(queryCtx, sqlc.SearchChunksParams{
		Embedding: queryEmbedding,
		MaxRows:   int64(cfg.topK),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results := make([]SearchResult, len(rows))
	for i, row := range rows {
		results[i] = SearchResult{
			Content:      row.Content,
			DocumentName: row.Filename,
			DocumentID:   row.DocumentID,
			Page:         int(row.Page.Int32),
			ChunkIndex:   int(row.ChunkIndex),
			Similarity:   distanceToSimilarity(row.Distance),
		}
	}
	return results, nil
}

// Get returns the registry entry for a document.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	doc, err := s.queries.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Document{}, fmt.Errorf("get document %q: %w", id, err)
	}
	return toDocument(doc), nil
}

// List returns all indexed documents, newest first.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.queries.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]Document, len(rows))
	for i, row := range rows {
		docs[i] = toDocument(row)
	}
	return docs, nil
}

// Delete removes a document and all its chunks. The chunks go with the
// registry row through the foreign key cascade, so the removal is atomic.
func (s *Store) Delete(ctx context.Context, id string) error {
	affected, err := s.queries.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document %q: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

// distanceToSimilarity converts pgvector cosine distance to similarity.
// Floating point noise can push the distance slightly outside [0, 2];
// clamp so scores stay in [-1, 1].
func distanceToSimilarity(distance float64) float64 {
	sim := 1 - distance
	return math.Max(-1, math.Min(1, sim))
}

func toDocument(d sqlc.Document) Document {
	var uploadedAt time.Time
	if d.UploadedAt.Valid {
		uploadedAt = d.UploadedAt.Time
	}
	return Document{
		ID:         d.ID,
		Filename:   d.Filename,
		ByteSize:   d.ByteSize,
		NumChunks:  int(d.NumChunks),
		UploadedAt: uploadedAt,
	}
}
