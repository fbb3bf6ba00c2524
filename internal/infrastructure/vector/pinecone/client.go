package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	upsertBatchSize   = 50

	// The index is eventually consistent after writes; verification waits
	// briefly, and a freshly created index needs a longer settle.
	verifyDelay      = 2 * time.Second
	indexCreateDelay = 30 * time.Second

	metadataTextLimit = 800
)

type Config struct {
	APIKey    string
	Host      string // data-plane host; resolved via control plane when empty
	IndexName string
	Cloud     string
	Region    string
	Dimension int

	// ControlURL and Sleep are overridable for tests.
	ControlURL string
	Sleep      func(time.Duration)
}

// Client indexes and searches document chunk vectors in a Pinecone-style
// REST index, always scoped by the document_id metadata field.
//
// A chat query that runs between an upsert and its verification may see a
// partial or empty result set. That eventual-consistency window is
// accepted, not masked.
type Client struct {
	apiKey     string
	baseURL    string
	controlURL string
	indexName  string
	cloud      string
	region     string
	dimension  int
	httpClient *http.Client
	sleep      func(time.Duration)
}

func New(cfg Config) *Client {
	controlURL := cfg.ControlURL
	if controlURL == "" {
		controlURL = defaultControlURL
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    normalizeHost(cfg.Host),
		controlURL: strings.TrimRight(controlURL, "/"),
		indexName:  cfg.IndexName,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		dimension:  cfg.Dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sleep:      sleep,
	}
}

// EnsureIndex resolves the data-plane host, creating the index when it does
// not exist yet. Called once at bootstrap.
func (c *Client) EnsureIndex(ctx context.Context) error {
	if c.baseURL != "" {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("pinecone api key not configured")
	}

	host, err := c.describeIndexHost(ctx)
	if err == nil {
		c.baseURL = normalizeHost(host)
		return nil
	}

	if err := c.createIndex(ctx); err != nil {
		return err
	}
	c.sleep(indexCreateDelay)

	host, err = c.describeIndexHost(ctx)
	if err != nil {
		return fmt.Errorf("describe index after create: %w", err)
	}
	c.baseURL = normalizeHost(host)
	return nil
}

// Upsert stores one record per (chunk, vector) pair and verifies the write
// with a scoped query. It returns false, never an error: every failure path
// is logged with enough context to diagnose without re-running.
func (c *Client) Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32, metadata map[string]any) bool {
	if c.baseURL == "" {
		slog.Error("vector index not configured, embeddings will not be stored", "document_id", documentID)
		return false
	}
	if len(chunks) == 0 || len(vectors) == 0 {
		slog.Error("nothing to upsert",
			"document_id", documentID, "chunks", len(chunks), "vectors", len(vectors))
		return false
	}
	if len(chunks) != len(vectors) {
		// Known degradation: the embedder drops degenerate vectors.
		slog.Warn("chunk/vector count mismatch, truncating to common length",
			"document_id", documentID, "chunks", len(chunks), "vectors", len(vectors))
		n := min(len(chunks), len(vectors))
		chunks = chunks[:n]
		vectors = vectors[:n]
	}

	type record struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata"`
	}

	records := make([]record, 0, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]any{
			"document_id":  documentID,
			"chunk_index":  i,
			"text":         previewText(chunk),
			"chunk_length": len(chunk),
		}
		for k, v := range metadata {
			meta[k] = v
		}
		records = append(records, record{
			ID:       fmt.Sprintf("doc-%s-chunk-%d", documentID, i),
			Values:   vectors[i],
			Metadata: meta,
		})
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		if err := c.postJSON(ctx, "/vectors/upsert", map[string]any{"vectors": records[start:end]}, nil, "upsert"); err != nil {
			slog.Error("vector upsert batch failed",
				"document_id", documentID, "batch_start", start, "batch_end", end, "error", err)
			return false
		}
	}

	c.sleep(verifyDelay)

	matches, err := c.query(ctx, vectors[0], 1, scopedFilter(documentID), false)
	if err != nil {
		slog.Error("upsert verification query failed", "document_id", documentID, "error", err)
		return false
	}
	if len(matches) == 0 {
		slog.Error("upsert verification returned no matches",
			"document_id", documentID, "records", len(records))
		return false
	}

	slog.Info("stored embeddings", "document_id", documentID, "records", len(records))
	return true
}

// Query returns the topK matches scoped to documentID. When the scoped
// query fails at the transport level it falls back once to an unscoped
// query rather than failing the caller outright.
func (c *Client) Query(ctx context.Context, documentID string, vector []float32, topK int) ([]domain.VectorMatch, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("vector index not configured")
	}
	matches, err := c.query(ctx, vector, topK, scopedFilter(documentID), true)
	if err == nil {
		return matches, nil
	}

	slog.Warn("scoped vector query failed, retrying without filter",
		"document_id", documentID, "error", err)
	matches, fallbackErr := c.query(ctx, vector, topK, nil, true)
	if fallbackErr != nil {
		return nil, fmt.Errorf("vector query: %w (unscoped fallback: %v)", err, fallbackErr)
	}
	return matches, nil
}

// Delete removes all records for documentID.
func (c *Client) Delete(ctx context.Context, documentID string) bool {
	if c.baseURL == "" {
		return false
	}
	payload := map[string]any{"filter": scopedFilter(documentID)}
	if err := c.postJSON(ctx, "/vectors/delete", payload, nil, "delete"); err != nil {
		slog.Error("vector delete failed", "document_id", documentID, "error", err)
		return false
	}
	slog.Info("deleted embeddings", "document_id", documentID)
	return true
}

func (c *Client) query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.VectorMatch, error) {
	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": includeMetadata,
		"includeValues":   false,
	}
	if filter != nil {
		payload["filter"] = filter
	}

	var response struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.postJSON(ctx, "/query", payload, &response, "query"); err != nil {
		return nil, err
	}

	out := make([]domain.VectorMatch, 0, len(response.Matches))
	for _, m := range response.Matches {
		out = append(out, domain.VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return out, nil
}

func scopedFilter(documentID string) map[string]any {
	return map[string]any{
		"document_id": map[string]any{"$eq": documentID},
	}
}

func previewText(chunk string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(chunk, "\n", " "))
	if len(clean) > metadataTextLimit {
		clean = clean[:metadataTextLimit]
	}
	return clean
}

func (c *Client) describeIndexHost(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.controlURL+"/indexes/"+c.indexName, nil)
	if err != nil {
		return "", fmt.Errorf("create describe index request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("describe index request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", statusError("describe index", resp)
	}

	var described struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&described); err != nil {
		return "", fmt.Errorf("decode describe index response: %w", err)
	}
	if described.Host == "" {
		return "", fmt.Errorf("describe index returned empty host")
	}
	return described.Host, nil
}

func (c *Client) createIndex(ctx context.Context) error {
	payload := map[string]any{
		"name":      c.indexName,
		"dimension": c.dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cloud,
				"region": c.region,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal create index body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.controlURL+"/indexes", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	defer resp.Body.Close()

	// 409: index already exists, typically created by a concurrent bootstrap.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("create index", resp)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Errorf("%s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("%s status: %s", operation, resp.Status)
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}
