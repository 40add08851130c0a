package ingest

import "bytes"

var pdfMagic = []byte("%PDF-")

// AutoDetect routes a payload to the PDF or HTML extractor based on its
// leading bytes.
type AutoDetect struct {
	PDF  Ingestor
	HTML Ingestor
}

func NewAutoDetect() *AutoDetect {
	return &AutoDetect{PDF: NewPDFExtractor(), HTML: NewHTMLExtractor()}
}

func (a *AutoDetect) Extract(data []byte, password string) ([]Page, error) {
	if bytes.HasPrefix(data, pdfMagic) {
		return a.PDF.Extract(data, password)
	}
	return a.HTML.Extract(data, password)
}
