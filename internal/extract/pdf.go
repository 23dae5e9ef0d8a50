package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/knowassist/knowassist/internal/chunker"
)

// pdfExtractor reads text content page by page. Pages are numbered from 1
// so citations can point back into the source document.
type pdfExtractor struct{}

func (pdfExtractor) Extract(path string) ([]chunker.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]chunker.Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Malformed pages are skipped rather than failing the whole
			// document. ErrNoText fires later if nothing was readable.
			continue
		}
		pages = append(pages, chunker.Page{Number: i, Text: text})
	}
	return pages, nil
}
