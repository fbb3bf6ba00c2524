// Package extractor routes stored documents to a format-specific text
// extractor based on their MIME type.
package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
	"github.com/dmfedotov/legal-doc-assistant/internal/core/ports"
)

type Dispatcher struct {
	pdf  ports.TextExtractor
	text ports.TextExtractor
}

func NewDispatcher(pdf, text ports.TextExtractor) *Dispatcher {
	return &Dispatcher{pdf: pdf, text: text}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	mime := strings.ToLower(strings.TrimSpace(doc.MimeType))
	switch {
	case mime == "application/pdf" || strings.HasSuffix(strings.ToLower(doc.Filename), ".pdf"):
		return d.pdf.Extract(ctx, doc)
	case mime == "" || strings.HasPrefix(mime, "text/") || mime == "application/json":
		return d.text.Extract(ctx, doc)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text",
			errors.New("unsupported document type: "+mime))
	}
}
