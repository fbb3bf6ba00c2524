package groq

import (
	"context"
	"strings"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

const (
	defaultTimeout = 60 * time.Second
	maxTokens      = 4000
)

// Client talks to a Groq-style OpenAI-compatible chat-completion API.
// It never retries: callers degrade to fallback answers instead.
type Client struct {
	baseURL string
	apiKey  string
	model   string

	transport *transport
}

func New(baseURL, apiKey, model string) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:   base,
		apiKey:    apiKey,
		model:     model,
		transport: newTransport(base, apiKey, defaultTimeout),
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete issues one chat-completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.transport.postJSON(ctx, "/chat/completions", payload, &response, "chat completion"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", &HTTPStatusError{Operation: "chat completion", StatusCode: 200, Status: "200 OK", Body: "empty choices"}
	}
	return response.Choices[0].Message.Content, nil
}
