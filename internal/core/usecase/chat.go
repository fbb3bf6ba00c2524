package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

const (
	answerNoVectorDB = "Vector database is not configured. Please check the AI configuration."
	answerNoModel    = "AI model is not configured. Please check the AI configuration."
	answerEmbedFail  = "Failed to process your question. Please try again."
	answerNoContext  = "I cannot find sufficient information in the document to answer this question. The document may not contain relevant information or the embeddings may need to be regenerated."
	answerError      = "An error occurred while processing your request. Please try again."
)

// Chat answers a question grounded strictly in the given document's stored
// chunks. It always returns a well-formed ChatAnswer: configuration gaps,
// transport failures and panics all degrade to fixed answers.
func (s *AIService) Chat(ctx context.Context, documentID, question string, temperature float64) (out domain.ChatAnswer) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chat failed with panic", "document_id", documentID, "panic", r)
			out = fixedAnswer(answerError, start)
		}
	}()

	if s.index == nil {
		slog.Error("vector index not configured", "document_id", documentID)
		return fixedAnswer(answerNoVectorDB, start)
	}
	if s.model == nil {
		slog.Error("generative model not configured", "document_id", documentID)
		return fixedAnswer(answerNoModel, start)
	}

	queryVectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil || len(queryVectors) == 0 {
		slog.Error("query embedding failed", "document_id", documentID, "error", err)
		return fixedAnswer(answerEmbedFail, start)
	}

	matches, err := s.index.Query(ctx, documentID, queryVectors[0], s.opts.TopK)
	if err != nil {
		// Degraded retrieval: proceed with no matches and let the
		// insufficient-context policy produce the refusal.
		slog.Error("vector query failed", "document_id", documentID, "error", err)
		matches = nil
	}

	// The index is expected to return matches in descending score order,
	// but that is not guaranteed; sort before building context and sources.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	contextParts := make([]string, 0, len(matches))
	sources := make([]domain.ChatSource, 0, len(matches))
	for _, m := range matches {
		text := metaString(m.Metadata, "text")
		if m.Score > s.opts.MinScore && text != "" {
			contextParts = append(contextParts, text)
			sources = append(sources, domain.ChatSource{
				ChunkIndex: metaInt(m.Metadata, "chunk_index"),
				Score:      m.Score,
			})
		}
	}

	grounding := strings.Join(contextParts, "\n\n")
	slog.Info("assembled grounding context",
		"document_id", documentID, "chunks", len(contextParts), "chars", len(grounding))

	if len(strings.TrimSpace(grounding)) < s.opts.MinContextChars {
		// Deliberate refusal-to-answer policy, not an error.
		return fixedAnswer(answerNoContext, start)
	}

	response, err := s.model.Complete(ctx, buildChatMessages(grounding, question), temperature)
	if err != nil {
		slog.Error("chat completion failed", "document_id", documentID, "error", err)
		return fixedAnswer(answerError, start)
	}

	if len(sources) > s.opts.MaxSources {
		sources = sources[:s.opts.MaxSources]
	}
	return domain.ChatAnswer{
		Answer:       response,
		Sources:      sources,
		ResponseTime: time.Since(start).Seconds(),
	}
}

func fixedAnswer(text string, start time.Time) domain.ChatAnswer {
	return domain.ChatAnswer{
		Answer:       text,
		Sources:      []domain.ChatSource{},
		ResponseTime: time.Since(start).Seconds(),
	}
}

func metaString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	s, _ := metadata[key].(string)
	return s
}

func metaInt(metadata map[string]any, key string) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
