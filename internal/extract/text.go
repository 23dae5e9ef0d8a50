package extract

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/knowassist/knowassist/internal/chunker"
)

// textExtractor handles plain-text formats (.txt, .md). The whole file
// becomes a single unpaginated page.
type textExtractor struct{}

func (textExtractor) Extract(path string) ([]chunker.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: file is not valid UTF-8", path)
	}
	return []chunker.Page{{Number: 0, Text: string(data)}}, nil
}
