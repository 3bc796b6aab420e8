package service

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/legalmind/legalmind/internal/domain"
)

// ExtractPDFText extracts plain text from PDF bytes, with page breaks
// preserved as double newlines. Scanned PDFs with no text layer come back
// empty and are rejected as ErrEmptyDocument.
func ExtractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "could not parse PDF", err)
	}

	var pages []string
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	raw := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if raw == "" {
		return "", domain.ErrEmptyDocument
	}
	return raw, nil
}
