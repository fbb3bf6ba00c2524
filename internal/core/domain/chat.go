package domain

import "time"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is one role-tagged turn sent to the generative model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRecord is a persisted chat exchange.
type ChatRecord struct {
	ID             string       `json:"id"`
	DocumentID     string       `json:"document_id"`
	Question       string       `json:"question"`
	Answer         string       `json:"answer"`
	ModelUsed      string       `json:"model_used,omitempty"`
	Temperature    float64      `json:"temperature"`
	Sources        []ChatSource `json:"sources"`
	ResponseTimeMS int          `json:"response_time_ms"`
	CreatedAt      time.Time    `json:"created_at"`
}
