package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts per-page plain text from PDF payloads.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// Extract parses the PDF and returns one Page per page that carries text.
// The pdf package panics on some malformed inputs, so parsing is fenced
// with a recover that maps everything onto ErrUnreadableDocument.
func (e *PDFExtractor) Extract(data []byte, password string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadableDocument)
	}

	var (
		doc     *pdf.Reader
		openErr error
	)
	reader := bytes.NewReader(data)
	if password != "" {
		doc, openErr = pdf.NewReaderEncrypted(reader, int64(len(data)), func() string { return password })
	} else {
		doc, openErr = pdf.NewReader(reader, int64(len(data)))
	}
	if openErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, openErr)
	}

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, textErr := page.GetPlainText(nil)
		if textErr != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Text: text, Index: i - 1})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", ErrUnreadableDocument)
	}
	return pages, nil
}
