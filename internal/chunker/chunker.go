package chunker

import (
	"errors"
	"strings"

	"docchat/internal/ingest"
)

// ErrEmptyDocument indicates the extracted text was empty or whitespace-only.
var ErrEmptyDocument = errors.New("document contains no text")

// Chunk is a bounded, overlapping substring of the source document text.
// Page is the index of the page the chunk starts on. Ordinal is the chunk's
// position in source order.
type Chunk struct {
	Text    string
	Page    int
	Ordinal int
}

type pageSpan struct {
	start int
	page  int
}

// Split joins the page texts in order and windows the result into chunks of
// roughly size characters with a fixed overlap between consecutive chunks.
// The same page sequence always yields the same chunk sequence.
func Split(pages []ingest.Page, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	var b strings.Builder
	var spans []pageSpan
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		spans = append(spans, pageSpan{start: b.Len(), page: p.Index})
		b.WriteString(text)
	}
	text := b.String()
	if text == "" {
		return nil, ErrEmptyDocument
	}

	var chunks []Chunk
	for start := 0; start < len(text); {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			Text:    text[start:end],
			Page:    pageAt(spans, start),
			Ordinal: len(chunks),
		})
		if end == len(text) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

// pageAt returns the page index owning position pos in the joined text.
func pageAt(spans []pageSpan, pos int) int {
	page := 0
	for _, s := range spans {
		if s.start > pos {
			break
		}
		page = s.page
	}
	return page
}
