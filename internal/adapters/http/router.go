package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
	"github.com/dmfedotov/legal-doc-assistant/internal/core/ports"
	"github.com/dmfedotov/legal-doc-assistant/internal/observability/metrics"
)

const defaultChatTemperature = 0.1

type RouterConfig struct {
	Service          string
	UploadMaxBytes   int64
	QuestionMaxChars int
	ModelName        string
}

type Router struct {
	cfg     RouterConfig
	ingest  ports.DocumentIngestor
	ai      ports.AIService
	repo    ports.DocumentRepository
	history ports.ChatHistoryRepository
	storage ports.ObjectStorage
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg RouterConfig,
	ingest ports.DocumentIngestor,
	ai ports.AIService,
	repo ports.DocumentRepository,
	history ports.ChatHistoryRepository,
	storage ports.ObjectStorage,
	m *metrics.HTTPServerMetrics,
) *Router {
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 20 << 20
	}
	if cfg.QuestionMaxChars <= 0 {
		cfg.QuestionMaxChars = 1000
	}
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	return &Router{
		cfg:     cfg,
		ingest:  ingest,
		ai:      ai,
		repo:    repo,
		history: history,
		storage: storage,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/ai/chat", rt.chat)
	mux.HandleFunc("/v1/ai/analyze", rt.analyze)
	mux.HandleFunc("/v1/ai/chat-history/", rt.chatHistory)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.UploadMaxBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.getDocument(w, r, id)
	case http.MethodDelete:
		rt.deleteDocument(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	doc, err := rt.repo.GetByID(ctx, id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	// Embeddings and the stored file go first; the metadata row is the
	// source of truth and falls last.
	rt.ai.DeleteEmbeddings(ctx, id)
	if err := rt.storage.Delete(ctx, doc.StoragePath); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if err := rt.repo.Delete(ctx, id); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		DocumentID  string   `json:"document_id"`
		Question    string   `json:"question"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	question := strings.TrimSpace(req.Question)
	switch {
	case req.DocumentID == "":
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	case question == "":
		writeError(w, http.StatusBadRequest, "question is required")
		return
	case len(question) > rt.cfg.QuestionMaxChars:
		writeError(w, http.StatusBadRequest, "question exceeds maximum length")
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), req.DocumentID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if !doc.Ready() {
		writeError(w, http.StatusConflict, "document is not processed yet")
		return
	}

	temperature := defaultChatTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	start := time.Now()
	answer := rt.ai.Chat(r.Context(), req.DocumentID, question, temperature)

	if rt.metrics != nil {
		rt.metrics.RecordChat(rt.cfg.Service, len(answer.Sources), time.Since(start))
	}

	record := &domain.ChatRecord{
		ID:             uuid.NewString(),
		DocumentID:     req.DocumentID,
		Question:       question,
		Answer:         answer.Answer,
		ModelUsed:      rt.cfg.ModelName,
		Temperature:    temperature,
		Sources:        answer.Sources,
		ResponseTimeMS: int(answer.ResponseTime * 1000),
		CreatedAt:      time.Now().UTC(),
	}
	if err := rt.history.Append(r.Context(), record); err != nil {
		// History is best effort; the answer still goes out.
		writeJSON(w, http.StatusOK, answer)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), req.DocumentID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if doc.ExtractedText == "" {
		writeError(w, http.StatusConflict, "document has no extracted text yet")
		return
	}

	result := rt.ai.Analyze(r.Context(), doc.ExtractedText)
	if rt.metrics != nil {
		rt.metrics.RecordAnalysis(rt.cfg.Service, result.Error != "")
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/ai/chat-history/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := rt.history.ListByDocument(r.Context(), id, offset, limit)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
		"records":     records,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
