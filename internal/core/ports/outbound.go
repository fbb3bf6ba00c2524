package ports

import (
	"context"
	"io"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, extractedText, summary string) error
	Delete(ctx context.Context, id string) error
}

// ChatHistoryRepository persists chat exchanges per document.
type ChatHistoryRepository interface {
	Append(ctx context.Context, record *domain.ChatRecord) error
	ListByDocument(ctx context.Context, documentID string, offset, limit int) ([]domain.ChatRecord, int, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into overlapping retrieval-sized chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds normalized fixed-dimension vectors for chunks and queries.
// The returned slice may be shorter than the input: degenerate vectors
// (all-zero or wrong dimension) are dropped, not surfaced as errors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorIndex is the external similarity index, scoped by document id.
// Upsert and Delete report success as a bool: every failure path is logged
// by the implementation and must not surface as an error to cleanup code.
type VectorIndex interface {
	Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32, metadata map[string]any) bool
	Query(ctx context.Context, documentID string, vector []float32, topK int) ([]domain.VectorMatch, error)
	Delete(ctx context.Context, documentID string) bool
}

// ChatModel is the generative chat-completion boundary.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error)
}
