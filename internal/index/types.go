package index

import (
	"time"
)

// Document describes an indexed document as stored in the registry.
type Document struct {
	ID         string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ByteSize   int64     `json:"byte_size"`
	NumChunks  int       `json:"num_chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SearchResult is one retrieved chunk with its provenance and score.
type SearchResult struct {
	// Content is the chunk text.
	Content string `json:"content"`
	// DocumentName is the original filename of the source document.
	DocumentName string `json:"document_name"`
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`
	// Page is the 1-based source page, 0 when the format has no pages.
	Page int `json:"page,omitempty"`
	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`
	// Similarity is the cosine similarity in [-1, 1]; higher is closer.
	Similarity float64 `json:"similarity_score"`
}

const (
	defaultTopK    = 4
	defaultTimeout = 10 * time.Second
)

type searchConfig struct {
	topK      int
	filterIDs []string
	timeout   time.Duration
}

// SearchOption configures a Search call.
type SearchOption func(*searchConfig)

// WithTopK sets the maximum number of results. Values below 1 keep the
// default.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithDocumentFilter restricts the search to the given document IDs. The
// filter is applied before ranking, so the top results come from the
// allowed documents rather than being filtered out afterwards. An empty
// slice leaves the search unrestricted.
func WithDocumentFilter(ids []string) SearchOption {
	return func(c *searchConfig) {
		c.filterIDs = ids
	}
}

// WithTimeout bounds the embedding call and the vector query.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:    defaultTopK,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
