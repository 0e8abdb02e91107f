// Package document reads preview metadata from downloaded artifacts
package document

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/garyjia/invoice-intake/internal/application/port"
)

var pdfMagic = []byte("%PDF")

// Inspector implements port.DocumentInspector with MuPDF
type Inspector struct{}

// NewInspector creates a new Inspector
func NewInspector() *Inspector {
	return &Inspector{}
}

// PageCount returns the number of pages of a PDF document. Non-PDF data
// (images) counts as a single page.
func (i *Inspector) PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty document")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return 1, nil
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

var _ port.DocumentInspector = (*Inspector)(nil)
