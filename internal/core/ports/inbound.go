package ports

import (
	"context"
	"io"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// AIService is the RAG core surface exposed to the surrounding system.
// Every method returns a structurally complete result even under total
// dependency failure; none of them propagates a raw error.
type AIService interface {
	Analyze(ctx context.Context, text string) domain.AnalysisResult
	StoreEmbeddings(ctx context.Context, documentID, text string, metadata map[string]any) bool
	DeleteEmbeddings(ctx context.Context, documentID string) bool
	Chat(ctx context.Context, documentID, question string, temperature float64) domain.ChatAnswer
}
