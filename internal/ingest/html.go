package ingest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// HTMLExtractor extracts readable article text from HTML payloads.
// It ignores the password argument; HTML documents are never encrypted.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (e *HTMLExtractor) Extract(data []byte, _ string) ([]Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadableDocument)
	}

	base, _ := url.Parse("http://localhost/upload")
	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, fmt.Errorf("%w: no extractable text", ErrUnreadableDocument)
	}
	return []Page{{Text: article.TextContent, Index: 0}}, nil
}
