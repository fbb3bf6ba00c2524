package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

type ingestFake struct {
	err error
}

func (f *ingestFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "doc-1_" + filename,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type repoFake struct {
	docs    map[string]*domain.Document
	deleted []string
}

func (f *repoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (f *repoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

func (f *repoFake) SaveExtraction(context.Context, string, string, string) error { return nil }

func (f *repoFake) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type aiServiceFake struct {
	answer      domain.ChatAnswer
	analysis    domain.AnalysisResult
	chatCalls   int
	lastTemp    float64
	deletedDocs []string
}

func (f *aiServiceFake) Analyze(context.Context, string) domain.AnalysisResult {
	return f.analysis
}

func (f *aiServiceFake) StoreEmbeddings(context.Context, string, string, map[string]any) bool {
	return true
}

func (f *aiServiceFake) DeleteEmbeddings(_ context.Context, documentID string) bool {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return true
}

func (f *aiServiceFake) Chat(_ context.Context, _, _ string, temperature float64) domain.ChatAnswer {
	f.chatCalls++
	f.lastTemp = temperature
	return f.answer
}

type historyFake struct {
	appended []*domain.ChatRecord
	records  []domain.ChatRecord
	total    int
	err      error
}

func (f *historyFake) Append(_ context.Context, record *domain.ChatRecord) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, record)
	return nil
}

func (f *historyFake) ListByDocument(context.Context, string, int, int) ([]domain.ChatRecord, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.records, f.total, nil
}

type storageDeleteFake struct {
	deleted []string
}

func (f *storageDeleteFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *storageDeleteFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *storageDeleteFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type routerEnv struct {
	handler http.Handler
	ai      *aiServiceFake
	repo    *repoFake
	history *historyFake
	storage *storageDeleteFake
}

func newRouterEnv(docs ...*domain.Document) *routerEnv {
	repo := &repoFake{docs: map[string]*domain.Document{}}
	for _, d := range docs {
		repo.docs[d.ID] = d
	}
	ai := &aiServiceFake{
		answer: domain.ChatAnswer{
			Answer:       "grounded answer",
			Sources:      []domain.ChatSource{{ChunkIndex: 0, Score: 0.9}},
			ResponseTime: 0.12,
		},
		analysis: domain.AnalysisResult{Summary: "A lease."},
	}
	history := &historyFake{}
	storage := &storageDeleteFake{}
	rt := NewRouter(
		RouterConfig{Service: "api", QuestionMaxChars: 100, ModelName: "llama-3.3-70b-versatile", UploadMaxBytes: 1 << 20},
		&ingestFake{},
		ai,
		repo,
		history,
		storage,
		nil,
	)
	return &routerEnv{handler: rt.Handler(), ai: ai, repo: repo, history: history, storage: storage}
}

func processedDoc() *domain.Document {
	return &domain.Document{
		ID:            "doc-1",
		Filename:      "lease.pdf",
		MimeType:      "application/pdf",
		StoragePath:   "doc-1_lease.pdf",
		ExtractedText: "lease body",
		Status:        domain.StatusProcessed,
	}
}

func TestHealthzEndpoint(t *testing.T) {
	env := newRouterEnv()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	env := newRouterEnv()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "lease.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("%PDF")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	env := newRouterEnv()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	env := newRouterEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteDocumentCleansUpEverything(t *testing.T) {
	env := newRouterEnv(processedDoc())

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(env.ai.deletedDocs) != 1 || env.ai.deletedDocs[0] != "doc-1" {
		t.Fatalf("expected embeddings cleanup, got %v", env.ai.deletedDocs)
	}
	if len(env.storage.deleted) != 1 || env.storage.deleted[0] != "doc-1_lease.pdf" {
		t.Fatalf("expected stored file cleanup, got %v", env.storage.deleted)
	}
	if len(env.repo.deleted) != 1 {
		t.Fatalf("expected metadata cleanup, got %v", env.repo.deleted)
	}
}

func TestChatReturnsAnswerAndPersistsRecord(t *testing.T) {
	env := newRouterEnv(processedDoc())

	payload := `{"document_id":"doc-1","question":"What is the term?","temperature":0.4}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if env.ai.lastTemp != 0.4 {
		t.Fatalf("expected temperature 0.4, got %v", env.ai.lastTemp)
	}
	if len(env.history.appended) != 1 {
		t.Fatalf("expected persisted chat record")
	}
	record := env.history.appended[0]
	if record.DocumentID != "doc-1" || record.Answer != "grounded answer" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.ResponseTimeMS != 120 {
		t.Fatalf("expected response time 120ms, got %d", record.ResponseTimeMS)
	}
}

func TestChatDefaultsTemperature(t *testing.T) {
	env := newRouterEnv(processedDoc())

	payload := `{"document_id":"doc-1","question":"q"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if env.ai.lastTemp != defaultChatTemperature {
		t.Fatalf("expected default temperature, got %v", env.ai.lastTemp)
	}
}

func TestChatRejectsUnprocessedDocument(t *testing.T) {
	doc := processedDoc()
	doc.Status = domain.StatusProcessing
	env := newRouterEnv(doc)

	payload := `{"document_id":"doc-1","question":"q"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	if env.ai.chatCalls != 0 {
		t.Fatalf("chat must not run for unprocessed documents")
	}
}

func TestChatRejectsOverlongQuestion(t *testing.T) {
	env := newRouterEnv(processedDoc())

	payload := `{"document_id":"doc-1","question":"` + strings.Repeat("q", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatSurvivesHistoryFailure(t *testing.T) {
	env := newRouterEnv(processedDoc())
	env.history.err = errors.New("db down")

	payload := `{"document_id":"doc-1","question":"q"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 despite history failure, got %d", res.Code)
	}
}

func TestAnalyzeReturnsResult(t *testing.T) {
	env := newRouterEnv(processedDoc())

	payload := `{"document_id":"doc-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/analyze", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var result map[string]any
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["summary"] != "A lease." {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAnalyzeRejectsDocumentWithoutText(t *testing.T) {
	doc := processedDoc()
	doc.ExtractedText = ""
	env := newRouterEnv(doc)

	payload := `{"document_id":"doc-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ai/analyze", strings.NewReader(payload))
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestChatHistoryReturnsPagedRecords(t *testing.T) {
	env := newRouterEnv(processedDoc())
	env.history.records = []domain.ChatRecord{{ID: "chat-1", DocumentID: "doc-1"}}
	env.history.total = 5

	req := httptest.NewRequest(http.MethodGet, "/v1/ai/chat-history/doc-1?offset=0&limit=1", nil)
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var page map[string]any
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page["total"].(float64) != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	env := newRouterEnv()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	env.handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}
