package usecase

import (
	"context"
	"log/slog"
	"strings"
)

// StoreEmbeddings chunks text, embeds the chunks and upserts them into the
// vector index scoped to documentID. Returns false, never an error; every
// failure path is logged with the counts needed to diagnose it.
func (s *AIService) StoreEmbeddings(ctx context.Context, documentID, text string, metadata map[string]any) bool {
	if s.index == nil {
		slog.Error("vector index not configured, embeddings will not be stored", "document_id", documentID)
		return false
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("empty document text, skipping embeddings", "document_id", documentID)
		return false
	}

	chunks := s.chunker.Split(text)
	slog.Info("chunked document text",
		"document_id", documentID, "chars", len(text), "chunks", len(chunks))
	if len(chunks) == 0 {
		slog.Error("chunking produced zero chunks", "document_id", documentID, "chars", len(text))
		return false
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		slog.Error("embedding chunks failed",
			"document_id", documentID, "chunks", len(chunks), "error", err)
		return false
	}
	if len(vectors) == 0 {
		slog.Error("no valid vectors produced",
			"document_id", documentID, "chunks", len(chunks))
		return false
	}

	return s.index.Upsert(ctx, documentID, chunks, vectors, metadata)
}

// DeleteEmbeddings removes every stored vector for documentID. A missing
// index yields false so cleanup paths stay simple for callers.
func (s *AIService) DeleteEmbeddings(ctx context.Context, documentID string) bool {
	if s.index == nil {
		return false
	}
	return s.index.Delete(ctx, documentID)
}
