package usecase

import (
	"context"
	"testing"
)

func TestStoreEmbeddingsHappyPath(t *testing.T) {
	index := &indexFake{upsertOK: true}
	chunker := &chunkerFake{chunks: []string{"chunk one", "chunk two"}}
	embedder := &embedderFake{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}}}
	svc := NewAIService(chunker, embedder, index, nil, AIServiceOptions{})

	ok := svc.StoreEmbeddings(context.Background(), "doc-1", "lease text", map[string]any{"filename": "lease.pdf"})
	if !ok {
		t.Fatalf("expected success")
	}
	if index.upsertedDoc != "doc-1" {
		t.Fatalf("unexpected document id: %q", index.upsertedDoc)
	}
	if len(index.upsertedChunks) != 2 || len(index.upsertedVectors) != 2 {
		t.Fatalf("expected 2 chunks and 2 vectors, got %d/%d",
			len(index.upsertedChunks), len(index.upsertedVectors))
	}
}

func TestStoreEmbeddingsWithoutIndexFails(t *testing.T) {
	svc := NewAIService(&chunkerFake{}, &embedderFake{}, nil, nil, AIServiceOptions{})

	if svc.StoreEmbeddings(context.Background(), "doc-1", "text", nil) {
		t.Fatalf("expected failure without an index")
	}
}

func TestStoreEmbeddingsBlankTextFails(t *testing.T) {
	chunker := &chunkerFake{chunks: []string{"x"}}
	svc := NewAIService(chunker, &embedderFake{}, &indexFake{upsertOK: true}, nil, AIServiceOptions{})

	if svc.StoreEmbeddings(context.Background(), "doc-1", "  \n ", nil) {
		t.Fatalf("expected failure for blank text")
	}
	if chunker.calls != 0 {
		t.Fatalf("expected no chunking for blank text")
	}
}

func TestStoreEmbeddingsZeroChunksFails(t *testing.T) {
	svc := NewAIService(&chunkerFake{}, &embedderFake{}, &indexFake{upsertOK: true}, nil, AIServiceOptions{})

	if svc.StoreEmbeddings(context.Background(), "doc-1", "text", nil) {
		t.Fatalf("expected failure when chunking yields nothing")
	}
}

func TestStoreEmbeddingsEmbedErrorFails(t *testing.T) {
	index := &indexFake{upsertOK: true}
	svc := NewAIService(
		&chunkerFake{chunks: []string{"chunk"}},
		&embedderFake{err: errBoom},
		index,
		nil,
		AIServiceOptions{},
	)

	if svc.StoreEmbeddings(context.Background(), "doc-1", "text", nil) {
		t.Fatalf("expected failure on embedding error")
	}
	if index.upsertedDoc != "" {
		t.Fatalf("upsert must not run after embedding failure")
	}
}

func TestStoreEmbeddingsNoVectorsFails(t *testing.T) {
	svc := NewAIService(
		&chunkerFake{chunks: []string{"chunk"}},
		&embedderFake{vectors: [][]float32{}},
		&indexFake{upsertOK: true},
		nil,
		AIServiceOptions{},
	)

	if svc.StoreEmbeddings(context.Background(), "doc-1", "text", nil) {
		t.Fatalf("expected failure when no vectors survive")
	}
}

func TestDeleteEmbeddingsDelegatesToIndex(t *testing.T) {
	index := &indexFake{}
	svc := NewAIService(&chunkerFake{}, &embedderFake{}, index, nil, AIServiceOptions{})

	if !svc.DeleteEmbeddings(context.Background(), "doc-9") {
		t.Fatalf("expected delete to succeed")
	}
	if len(index.deletedDocs) != 1 || index.deletedDocs[0] != "doc-9" {
		t.Fatalf("unexpected deletions: %v", index.deletedDocs)
	}
}

func TestDeleteEmbeddingsWithoutIndexFails(t *testing.T) {
	svc := NewAIService(&chunkerFake{}, &embedderFake{}, nil, nil, AIServiceOptions{})

	if svc.DeleteEmbeddings(context.Background(), "doc-9") {
		t.Fatalf("expected failure without an index")
	}
}
