package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

type record struct {
	id         string
	documentID string
	vector     []float32
	metadata   map[string]any
}

// Index is an in-process vector index with the same contract as the
// Pinecone client. Used for local development and tests; not persistent.
type Index struct {
	mu      sync.RWMutex
	records []record
}

func New() *Index {
	return &Index{}
}

func (idx *Index) Upsert(_ context.Context, documentID string, chunks []string, vectors [][]float32, metadata map[string]any) bool {
	if len(chunks) == 0 || len(vectors) == 0 {
		slog.Error("nothing to upsert",
			"document_id", documentID, "chunks", len(chunks), "vectors", len(vectors))
		return false
	}
	if len(chunks) != len(vectors) {
		slog.Warn("chunk/vector count mismatch, truncating to common length",
			"document_id", documentID, "chunks", len(chunks), "vectors", len(vectors))
		n := min(len(chunks), len(vectors))
		chunks = chunks[:n]
		vectors = vectors[:n]
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, chunk := range chunks {
		meta := map[string]any{
			"document_id":  documentID,
			"chunk_index":  i,
			"text":         strings.TrimSpace(strings.ReplaceAll(chunk, "\n", " ")),
			"chunk_length": len(chunk),
		}
		for k, v := range metadata {
			meta[k] = v
		}
		idx.records = append(idx.records, record{
			id:         fmt.Sprintf("doc-%s-chunk-%d", documentID, i),
			documentID: documentID,
			vector:     vectors[i],
			metadata:   meta,
		})
	}
	return true
}

func (idx *Index) Query(_ context.Context, documentID string, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		topK = 8
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.VectorMatch, 0, topK)
	for _, r := range idx.records {
		if r.documentID != documentID {
			continue
		}
		out = append(out, domain.VectorMatch{
			ID:       r.id,
			Score:    cosine(vector, r.vector),
			Metadata: r.metadata,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (idx *Index) Delete(_ context.Context, documentID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.records[:0]
	for _, r := range idx.records {
		if r.documentID != documentID {
			kept = append(kept, r)
		}
	}
	idx.records = kept
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
