// Package extract turns uploaded document payloads into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/examdeck/examdeck/internal/domain"
)

// PDF extracts text from a PDF payload by concatenating per-page text in
// page order. Pages with no extractable text (scanned images, empty pages)
// contribute an empty string; extraction only fails when the payload cannot
// be parsed at all.
func PDF(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf parser panics on some malformed files; fold those into the
	// extraction error path.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtraction, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Best effort: an unreadable page yields nothing, the rest
			// of the document is still recovered.
			continue
		}
		sb.WriteString(pageText)
	}

	return sb.String(), nil
}

// PDFBytes is a convenience wrapper for in-memory payloads.
func PDFBytes(payload []byte) (string, error) {
	return PDF(bytes.NewReader(payload), int64(len(payload)))
}
