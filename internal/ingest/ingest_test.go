package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knowassist/knowassist/internal/chunker"
	"github.com/knowassist/knowassist/internal/extract"
	"github.com/knowassist/knowassist/internal/index"
)

type mockIndexer struct {
	err     error
	inserts []insertCall
}

type insertCall struct {
	id       string
	filename string
	byteSize int64
	chunks   []chunker.Chunk
}

func (m *mockIndexer) Insert(ctx context.Context, id, filename string, byteSize int64, chunks []chunker.Chunk) (index.Document, error) {
	if m.err != nil {
		return index.Document{}, m.err
	}
	m.inserts = append(m.inserts, insertCall{id, filename, byteSize, chunks})
	return index.Document{
		ID:        id,
		Filename:  filename,
		ByteSize:  byteSize,
		NumChunks: len(chunks),
	}, nil
}

func newTestService(t *testing.T, idx Indexer, maxBytes int64) (*Service, string) {
	t.Helper()
	splitter, err := chunker.New(200, 20)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "uploads")
	return New(extract.NewRegistry(), splitter, idx, dir, maxBytes, slog.Default()), dir
}

func TestIngest(t *testing.T) {
	idx := &mockIndexer{}
	svc, dir := newTestService(t, idx, 1<<20)

	content := "This is the document body. It has enough text to produce at least one chunk."
	doc, err := svc.Ingest(context.Background(), "notes.txt", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if !strings.HasPrefix(doc.ID, "doc_") || len(doc.ID) != len("doc_")+12 {
		t.Errorf("document id = %q, want doc_<12 hex>", doc.ID)
	}
	if doc.Filename != "notes.txt" || doc.ByteSize != int64(len(content)) {
		t.Errorf("document = %+v", doc)
	}
	if doc.NumChunks < 1 {
		t.Error("document has no chunks")
	}

	// The staged file stays on disk after a successful ingest.
	staged := filepath.Join(dir, doc.ID+".txt")
	if _, err := os.Stat(staged); err != nil {
		t.Errorf("staged file missing after success: %v", err)
	}

	if len(idx.inserts) != 1 {
		t.Fatalf("indexer called %d times, want 1", len(idx.inserts))
	}
	if idx.inserts[0].chunks[0].Index != 0 {
		t.Errorf("first chunk = %+v", idx.inserts[0].chunks[0])
	}
}

func TestIngest_UnsupportedType(t *testing.T) {
	idx := &mockIndexer{}
	svc, dir := newTestService(t, idx, 1<<20)

	_, err := svc.Ingest(context.Background(), "archive.zip", strings.NewReader("data"))
	if !errors.Is(err, extract.ErrUnsupportedFileType) {
		t.Fatalf("Ingest() = %v, want ErrUnsupportedFileType", err)
	}
	if len(idx.inserts) != 0 {
		t.Error("indexer called for unsupported file")
	}
	// Rejected before staging: the upload dir is never even created.
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("upload staged despite unsupported type")
	}
}

func TestIngest_TooLarge(t *testing.T) {
	idx := &mockIndexer{}
	svc, dir := newTestService(t, idx, 10)

	_, err := svc.Ingest(context.Background(), "big.txt", strings.NewReader("this content is larger than ten bytes"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Ingest() = %v, want ErrFileTooLarge", err)
	}
	assertDirEmpty(t, dir)
}

func TestIngest_EmptyFile(t *testing.T) {
	idx := &mockIndexer{}
	svc, dir := newTestService(t, idx, 1<<20)

	_, err := svc.Ingest(context.Background(), "empty.txt", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("Ingest() = %v, want ErrEmptyFile", err)
	}
	assertDirEmpty(t, dir)
}

func TestIngest_NoExtractableText(t *testing.T) {
	idx := &mockIndexer{}
	svc, dir := newTestService(t, idx, 1<<20)

	_, err := svc.Ingest(context.Background(), "blank.txt", strings.NewReader("   \n\n   "))
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("Ingest() = %v, want ErrNoText", err)
	}
	assertDirEmpty(t, dir)
}

func TestIngest_IndexFailureCleansStagedFile(t *testing.T) {
	idx := &mockIndexer{err: errors.New("db down")}
	svc, dir := newTestService(t, idx, 1<<20)

	_, err := svc.Ingest(context.Background(), "notes.txt", strings.NewReader("some perfectly fine content"))
	if err == nil {
		t.Fatal("Ingest() succeeded with failing indexer")
	}
	assertDirEmpty(t, dir)
}

func TestIngestBatch(t *testing.T) {
	idx := &mockIndexer{}
	svc, _ := newTestService(t, idx, 1<<20)

	results := svc.IngestBatch(context.Background(), []File{
		{Name: "good.txt", Reader: strings.NewReader("first valid document content")},
		{Name: "bad.zip", Reader: strings.NewReader("unsupported")},
		{Name: "also-good.md", Reader: strings.NewReader("# Title\n\nsecond valid document")},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("first file failed: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, extract.ErrUnsupportedFileType) {
		t.Errorf("second file err = %v, want ErrUnsupportedFileType", results[1].Err)
	}
	if results[2].Err != nil {
		t.Errorf("third file failed: %v", results[2].Err)
	}
	if len(idx.inserts) != 2 {
		t.Errorf("indexer called %d times, want 2", len(idx.inserts))
	}
	for _, r := range results {
		if r.Err == nil && r.Document.ID == results[0].Document.ID && r.Filename != results[0].Filename {
			t.Error("documents share an id")
		}
	}
}

func TestNewDocumentID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewDocumentID()
		if !strings.HasPrefix(id, "doc_") || len(id) != len("doc_")+12 {
			t.Fatalf("id = %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staged files left behind: %v", entries)
	}
}
