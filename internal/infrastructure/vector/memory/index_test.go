package memory

import (
	"context"
	"testing"
)

func TestQueryScopesToDocumentAndRanksByScore(t *testing.T) {
	idx := New()
	ctx := context.Background()

	if ok := idx.Upsert(ctx, "doc-1", []string{"term clause", "rent clause"}, [][]float32{{1, 0}, {0, 1}}, nil); !ok {
		t.Fatalf("upsert doc-1 failed")
	}
	if ok := idx.Upsert(ctx, "doc-2", []string{"other"}, [][]float32{{1, 0}}, nil); !ok {
		t.Fatalf("upsert doc-2 failed")
	}

	matches, err := idx.Query(ctx, "doc-1", []float32{0.9, 0.1}, 8)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 scoped matches, got %d", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Fatalf("expected descending score order: %v", matches)
	}
	if matches[0].ID != "doc-doc-1-chunk-0" {
		t.Fatalf("expected closest chunk first, got %s", matches[0].ID)
	}
}

func TestDeleteRemovesAllDocumentRecords(t *testing.T) {
	idx := New()
	ctx := context.Background()

	idx.Upsert(ctx, "doc-1", []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil)
	idx.Upsert(ctx, "doc-2", []string{"c"}, [][]float32{{1, 0}}, nil)

	if ok := idx.Delete(ctx, "doc-1"); !ok {
		t.Fatalf("delete failed")
	}

	matches, err := idx.Query(ctx, "doc-1", []float32{1, 0}, 8)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches after delete, got %d", len(matches))
	}

	survivors, _ := idx.Query(ctx, "doc-2", []float32{1, 0}, 8)
	if len(survivors) != 1 {
		t.Fatalf("expected doc-2 records to survive, got %d", len(survivors))
	}
}

func TestUpsertRejectsEmptyInput(t *testing.T) {
	idx := New()
	if ok := idx.Upsert(context.Background(), "doc-1", nil, nil, nil); ok {
		t.Fatalf("expected upsert of empty input to fail")
	}
}
