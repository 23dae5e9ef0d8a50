// Package ingest runs the upload pipeline: validate the file, stage it to
// disk, extract its text, chunk it, and hand the chunks to the index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/knowassist/knowassist/internal/chunker"
	"github.com/knowassist/knowassist/internal/extract"
	"github.com/knowassist/knowassist/internal/index"
)

var (
	// ErrFileTooLarge reports an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds upload size limit")

	// ErrEmptyFile reports a zero-byte upload.
	ErrEmptyFile = errors.New("file is empty")
)

// Indexer is the persistence capability the pipeline needs.
type Indexer interface {
	Insert(ctx context.Context, id, filename string, byteSize int64, chunks []chunker.Chunk) (index.Document, error)
}

// File is one upload to process.
type File struct {
	Name   string
	Reader io.Reader
}

// ItemResult is the outcome for one file of a batch. Either Document is
// set or Err explains the failure; other files in the batch are
// unaffected.
type ItemResult struct {
	Filename string
	Document index.Document
	Err      error
}

// Service runs the ingestion pipeline.
type Service struct {
	registry  *extract.Registry
	splitter  *chunker.Splitter
	indexer   Indexer
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// New creates a Service. uploadDir is created on first use.
func New(registry *extract.Registry, splitter *chunker.Splitter, indexer Indexer, uploadDir string, maxBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:  registry,
		splitter:  splitter,
		indexer:   indexer,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Ingest processes one upload end to end and returns the indexed
// document. The staged file is kept on success and removed on any
// failure, so a failed ingestion leaves no trace on disk or in the index.
func (s *Service) Ingest(ctx context.Context, filename string, r io.Reader) (index.Document, error) {
	if !s.registry.Supports(filename) {
		return index.Document{}, fmt.Errorf("%w: %q", extract.ErrUnsupportedFileType, filepath.Ext(filename))
	}

	id := NewDocumentID()
	staged, size, err := s.stage(id, filename, r)
	if err != nil {
		return index.Document{}, err
	}

	doc, err := s.process(ctx, id, filename, staged, size)
	if err != nil {
		if rmErr := os.Remove(staged); rmErr != nil {
			s.logger.Warn("failed to remove staged file", "path", staged, "error", rmErr)
		}
		return index.Document{}, err
	}

	s.logger.Info("ingested document",
		"id", id, "filename", filename, "bytes", size, "chunks", doc.NumChunks)
	return doc, nil
}

// IngestBatch processes each file independently. One bad file never fails
// the batch; its error is reported in its ItemResult.
func (s *Service) IngestBatch(ctx context.Context, files []File) []ItemResult {
	results := make([]ItemResult, len(files))
	for i, f := range files {
		doc, err := s.Ingest(ctx, f.Name, f.Reader)
		results[i] = ItemResult{Filename: f.Name, Document: doc, Err: err}
	}
	return results
}

// stage copies the upload into the upload directory under the document ID,
// enforcing the size limit while copying.
func (s *Service) stage(id, filename string, r io.Reader) (path string, size int64, err error) {
	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	path = filepath.Join(s.uploadDir, id+strings.ToLower(filepath.Ext(filename)))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}

	// Read one byte past the limit so an oversized file is detected
	// without buffering it entirely.
	size, err = io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if size > s.maxBytes {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxBytes)
	}
	if size == 0 {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("%w: %s", ErrEmptyFile, filename)
	}
	return path, size, nil
}

func (s *Service) process(ctx context.Context, id, filename, staged string, size int64) (index.Document, error) {
	pages, err := s.registry.Extract(staged)
	if err != nil {
		return index.Document{}, err
	}

	var chunks []chunker.Chunk
	if len(pages) == 1 && pages[0].Number == 0 {
		chunks = s.splitter.Split(pages[0].Text)
	} else {
		chunks = s.splitter.SplitPages(pages)
	}
	if len(chunks) == 0 {
		return index.Document{}, fmt.Errorf("%w in %s", extract.ErrNoText, filename)
	}

	return s.indexer.Insert(ctx, id, filename, size, chunks)
}

// NewDocumentID returns an ID of the form doc_<12 hex chars>.
func NewDocumentID() string {
	return "doc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
