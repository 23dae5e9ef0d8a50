package extract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	readability "github.com/go-shiori/go-readability"

	"github.com/knowassist/knowassist/internal/chunker"
)

// htmlExtractor pulls the readable article text out of an HTML file,
// dropping navigation, scripts and boilerplate.
type htmlExtractor struct{}

func (htmlExtractor) Extract(path string) ([]chunker.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	// Readability wants a page URL for resolving relative links; a file
	// URL is enough for local uploads.
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	article, err := readability.FromReader(f, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return []chunker.Page{{Number: 0, Text: article.TextContent}}, nil
}
