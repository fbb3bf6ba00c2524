package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
	"github.com/dmfedotov/legal-doc-assistant/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	ai        ports.AIService
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	ai ports.AIService,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		ai:        ai,
	}
}

// ProcessByID runs the full ingestion pipeline for a stored document:
// extract text, embed and index it, produce an analysis summary, then mark
// the document processed. Any failure marks the document failed with the
// error message persisted for operators.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusProcessed, ""); err != nil {
		return fmt.Errorf("set status=processed: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return err
	}

	if ok := uc.ai.StoreEmbeddings(ctx, doc.ID, text, map[string]any{
		"filename":  doc.Filename,
		"mime_type": doc.MimeType,
	}); !ok {
		return domain.WrapError(domain.ErrTemporary, "store embeddings",
			errors.New("vector indexing did not complete"))
	}

	// Analysis degrades rather than fails: a document with embeddings but a
	// fallback summary is still usable for chat.
	analysis := uc.ai.Analyze(ctx, text)
	if analysis.Error != "" {
		slog.Warn("document analysis degraded",
			"document_id", doc.ID, "error", analysis.Error)
	}

	if err := uc.repo.SaveExtraction(ctx, doc.ID, text, analysis.Summary); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
