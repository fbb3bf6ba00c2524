package usecase

import (
	"context"
	"errors"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

type chunkerFake struct {
	chunks []string
	calls  int
}

func (f *chunkerFake) Split(string) []string {
	f.calls++
	return f.chunks
}

type embedderFake struct {
	vectors [][]float32
	err     error
	calls   int
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func (f *embedderFake) Dimension() int { return 3 }

type indexFake struct {
	matches  []domain.VectorMatch
	queryErr error
	upsertOK bool

	upsertedDoc     string
	upsertedChunks  []string
	upsertedVectors [][]float32
	deletedDocs     []string
}

func (f *indexFake) Upsert(_ context.Context, documentID string, chunks []string, vectors [][]float32, _ map[string]any) bool {
	f.upsertedDoc = documentID
	f.upsertedChunks = chunks
	f.upsertedVectors = vectors
	return f.upsertOK
}

func (f *indexFake) Query(context.Context, string, []float32, int) ([]domain.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *indexFake) Delete(_ context.Context, documentID string) bool {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return true
}

type modelFake struct {
	response string
	err      error
	calls    int
	messages []domain.ChatMessage
	temp     float64
}

func (f *modelFake) Complete(_ context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	f.calls++
	f.messages = messages
	f.temp = temperature
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var errBoom = errors.New("boom")

func match(score float64, chunkIndex int, text string) domain.VectorMatch {
	return domain.VectorMatch{
		ID:    "m",
		Score: score,
		Metadata: map[string]any{
			"chunk_index": float64(chunkIndex),
			"text":        text,
		},
	}
}
