package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

func TestCompleteSendsBearerAndPayload(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"the lease runs for two years"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret-key", "llama-3.3-70b-versatile")
	answer, err := client.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "answer from context"},
		{Role: domain.RoleUser, Content: "how long is the lease?"},
	}, 0.1)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "the lease runs for two years" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotPayload["model"] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model: %v", gotPayload["model"])
	}
	if gotPayload["max_tokens"] != float64(4000) {
		t.Fatalf("unexpected max_tokens: %v", gotPayload["max_tokens"])
	}
}

func TestCompleteSurfacesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "k", "m")
	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, 0.1)
	if err == nil {
		t.Fatalf("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "rate limit") {
		t.Fatalf("expected upstream body, got %q", statusErr.Body)
	}
}

func TestCompleteTranslatesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := New(server.URL, "k", "m")
	client.transport.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, 0.1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
