// Package chunker splits extracted document text into overlapping chunks
// sized for embedding.
//
// The splitter works recursively: it tries to break text on paragraph
// boundaries first, then line breaks, then sentence ends, then words, and
// only as a last resort mid-word. Adjacent chunks share a configurable
// overlap so context near chunk boundaries is preserved.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// defaultSeparators are tried in order. The empty string is the final
// fallback and splits between runes.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk is one piece of a split document.
type Chunk struct {
	// Index is the zero-based position of the chunk within the document.
	Index int
	// Page is the 1-based source page, or 0 when the format has no pages.
	Page int
	// Content is the chunk text with surrounding whitespace trimmed.
	Content string
}

// Page is a unit of extracted text that carries a page number.
type Page struct {
	Number int
	Text   string
}

// Splitter performs recursive character splitting.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New returns a Splitter producing chunks of at most chunkSize runes with
// the given overlap between consecutive chunks. Sizes count runes, not
// bytes, so multibyte text chunks the same as ASCII.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// Split chunks a single body of text. Chunks are indexed from zero; Page is
// left at zero.
func (s *Splitter) Split(text string) []Chunk {
	pieces := s.split(text, s.separators)
	chunks := make([]Chunk, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Content: p})
	}
	return chunks
}

// SplitPages chunks each page independently and assigns chunk indexes
// globally across the document, so indexes stay unique and ordered even
// when the source is paginated.
func (s *Splitter) SplitPages(pages []Page) []Chunk {
	var chunks []Chunk
	for _, pg := range pages {
		for _, p := range s.split(pg.Text, s.separators) {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Index:   len(chunks),
				Page:    pg.Number,
				Content: p,
			})
		}
	}
	return chunks
}

// split breaks text on the first separator it contains, recursing into
// oversized pieces with the remaining separators, then merges small pieces
// back together up to the chunk size.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, sep)
	}

	var final []string
	var pending []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		final = append(final, s.merge(pending, sep)...)
	}
	return final
}

// merge joins consecutive small pieces with sep until adding the next piece
// would exceed the chunk size, then starts the next chunk keeping up to
// overlap runes of trailing pieces.
func (s *Splitter) merge(splits []string, sep string) []string {
	var docs []string
	var current []string
	total := 0

	sepLen := utf8.RuneCountInString(sep)
	joinLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range splits {
		pieceLen := utf8.RuneCountInString(piece)
		if total+pieceLen+joinLen(len(current)) > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				docs = append(docs, doc)
			}
			// Drop leading pieces until the carried tail fits the overlap
			// and leaves room for the incoming piece.
			for len(current) > 0 &&
				(total > s.overlap || total+pieceLen+joinLen(len(current)) > s.chunkSize) {
				total -= utf8.RuneCountInString(current[0]) + joinLen(len(current)-1)
				current = current[1:]
			}
		}
		total += pieceLen + joinLen(len(current))
		current = append(current, piece)
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
