package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

// Embedder produces normalized fixed-dimension vectors via an Ollama-style
// /api/embed endpoint. Degenerate vectors (all-zero or wrong dimension) are
// dropped with a logged reason, so the output may be shorter than the input.
type Embedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
}

func New(baseURL, model string, dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *Embedder) Dimension() int {
	return e.dimension
}

// Check embeds a short probe and verifies the configured dimension. The
// process refuses to serve when this fails at startup.
func (e *Embedder) Check(ctx context.Context) error {
	vectors, err := e.Embed(ctx, []string{"embedding model readiness probe"})
	if err != nil {
		return fmt.Errorf("embedding probe: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embedding probe produced %d valid vectors, want 1", len(vectors))
	}
	return nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.postJSON(ctx, "/api/embed", request, &response); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(response.Embeddings))
	for i, vec := range response.Embeddings {
		if len(vec) != e.dimension {
			slog.Error("embedding dimension mismatch, dropping vector",
				"index", i, "got", len(vec), "want", e.dimension)
			continue
		}
		norm, ok := normalize(vec)
		if !ok {
			slog.Warn("embedding is all zeros, dropping vector", "index", i)
			continue
		}
		out = append(out, norm)
	}
	return out, nil
}

// normalize scales vec to unit length. The second return is false for
// all-zero vectors, which must never reach the index.
func normalize(vec []float32) ([]float32, bool) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, false
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out, true
}

func (e *Embedder) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("embed status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("embed status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}
