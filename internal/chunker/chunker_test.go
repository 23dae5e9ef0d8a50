package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(0, 0); err == nil {
		t.Error("New(0, 0) accepted zero chunk size")
	}
	if _, err := New(100, 100); err == nil {
		t.Error("New(100, 100) accepted overlap equal to chunk size")
	}
	if _, err := New(100, -1); err == nil {
		t.Error("New(100, -1) accepted negative overlap")
	}
}

func TestSplit_Empty(t *testing.T) {
	s := mustSplitter(t, 100, 20)

	if got := s.Split(""); len(got) != 0 {
		t.Errorf("Split(\"\") = %d chunks, want 0", len(got))
	}
	if got := s.Split("   \n\n  "); len(got) != 0 {
		t.Errorf("Split(whitespace) = %d chunks, want 0", len(got))
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 1000, 200)

	chunks := s.Split("A short paragraph that fits in one chunk.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
	if chunks[0].Content != "A short paragraph that fits in one chunk." {
		t.Errorf("chunk content = %q", chunks[0].Content)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := mustSplitter(t, 40, 0)

	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird one."
	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	// The first paragraph stays intact; the short second and third merge
	// back together because they fit in one chunk.
	if chunks[0].Content != "First paragraph here." {
		t.Errorf("first chunk = %q, want first paragraph intact", chunks[0].Content)
	}
	if chunks[1].Content != "Second paragraph here.\n\nThird one." {
		t.Errorf("second chunk = %q", chunks[1].Content)
	}
}

func TestSplit_RespectsMaxSize(t *testing.T) {
	s := mustSplitter(t, 50, 10)

	var b strings.Builder
	for range 40 {
		b.WriteString("some repeated words to force many splits here. ")
	}
	chunks := s.Split(b.String())

	if len(chunks) < 10 {
		t.Fatalf("got %d chunks, want many", len(chunks))
	}
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > 50 {
			t.Errorf("chunk exceeds max size (%d runes): %q", n, c.Content)
		}
	}
}

func TestSplit_SizesCountRunes(t *testing.T) {
	s := mustSplitter(t, 10, 0)

	// 35 three-byte runes. Counting bytes would split every 3 characters;
	// counting runes gives the same 4 chunks as the ASCII equivalent.
	chunks := s.Split(strings.Repeat("語", 35))
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > 10 {
			t.Errorf("chunk exceeds max size (%d runes): %q", n, c.Content)
		}
	}
}

func TestSplit_MultibyteWordsMergeByRunes(t *testing.T) {
	s := mustSplitter(t, 12, 0)

	// Each word is 5 runes but 15 bytes. Two words plus the joining space
	// fit a 12-rune chunk only when sizes count runes.
	chunks := s.Split("héllö wörld héllö wörld")
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if c.Content != "héllö wörld" {
			t.Errorf("chunk = %q, want two words merged", c.Content)
		}
	}
}

func TestSplit_NoSeparatorFallsBackToRunes(t *testing.T) {
	s := mustSplitter(t, 10, 0)

	chunks := s.Split(strings.Repeat("x", 35))
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 10 {
			t.Errorf("chunk exceeds max size: %q", c.Content)
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	s := mustSplitter(t, 30, 15)

	chunks := s.Split("alpha beta gamma delta epsilon zeta eta theta iota kappa")
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	// Each chunk after the first starts with words carried over from the
	// end of its predecessor.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.SplitN(chunks[i].Content, " ", 2)[0]
		if !strings.Contains(chunks[i-1].Content, firstWord) {
			t.Errorf("chunk %d does not overlap its predecessor: %q after %q",
				i, chunks[i].Content, chunks[i-1].Content)
		}
	}
}

func TestSplit_IndexesAreSequential(t *testing.T) {
	s := mustSplitter(t, 25, 5)

	chunks := s.Split("one two three four five six seven eight nine ten eleven twelve")
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Page != 0 {
			t.Errorf("chunk %d has page %d, want 0 for unpaginated input", i, c.Page)
		}
	}
}

func TestSplitPages(t *testing.T) {
	s := mustSplitter(t, 30, 0)

	pages := []Page{
		{Number: 1, Text: "page one content that is long enough to split twice"},
		{Number: 2, Text: "page two"},
		{Number: 3, Text: ""},
		{Number: 4, Text: "page four"},
	}
	chunks := s.SplitPages(pages)

	if len(chunks) < 4 {
		t.Fatalf("got %d chunks, want at least 4", len(chunks))
	}
	seen := make(map[int]bool)
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d, want global sequence", i, c.Index)
		}
		if seen[c.Index] {
			t.Errorf("duplicate chunk index %d", c.Index)
		}
		seen[c.Index] = true
		if c.Page < 1 {
			t.Errorf("chunk %d missing page number", i)
		}
	}
	last := chunks[len(chunks)-1]
	if last.Page != 4 || last.Content != "page four" {
		t.Errorf("last chunk = %+v, want page 4 content", last)
	}
}

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, overlap, err)
	}
	return s
}
