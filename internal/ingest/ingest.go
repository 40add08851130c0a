package ingest

import "errors"

// ErrUnreadableDocument indicates the payload could not be parsed into text:
// malformed data, wrong or missing password, or no extractable pages.
var ErrUnreadableDocument = errors.New("unreadable document")

// Page is one page-level text record extracted from a document.
type Page struct {
	Text  string
	Index int
}

// Ingestor extracts ordered page text from an uploaded binary payload.
type Ingestor interface {
	Extract(data []byte, password string) ([]Page, error)
}
