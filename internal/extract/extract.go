// Package extract turns uploaded files into plain text, dispatching on the
// file extension.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knowassist/knowassist/internal/chunker"
)

var (
	// ErrUnsupportedFileType reports an extension with no registered
	// extractor. It is returned before any file I/O happens.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrNoText reports a file that parsed successfully but yielded no
	// usable text, such as a scanned PDF without an OCR layer.
	ErrNoText = errors.New("no extractable text")
)

// Extractor parses one file format into pages of plain text. Formats
// without a page concept return a single page numbered zero.
type Extractor interface {
	Extract(path string) ([]chunker.Page, error)
}

// Registry dispatches extraction by lowercase file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".pdf", pdfExtractor{})
	r.Register(".txt", textExtractor{})
	r.Register(".md", textExtractor{})
	r.Register(".html", htmlExtractor{})
	r.Register(".htm", htmlExtractor{})
	return r
}

// Register installs an extractor for an extension such as ".pdf".
// Registering an extension twice replaces the previous extractor.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Restrict drops extractors whose extension is not in the allow list,
// letting deployments narrow the built-in format support.
func (r *Registry) Restrict(allowed map[string]bool) {
	for ext := range r.byExt {
		if !allowed[ext] {
			delete(r.byExt, ext)
		}
	}
}

// Supports reports whether an extractor is registered for the extension of
// the given filename.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract parses the file at path with the extractor matching its
// extension. Returns ErrUnsupportedFileType without touching the file when
// no extractor matches, and ErrNoText when parsing yields only blank text.
func (r *Registry) Extract(path string) ([]chunker.Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	pages, err := e.Extract(path)
	if err != nil {
		return nil, err
	}

	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return pages, nil
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrNoText, filepath.Base(path))
}
