package domain

// VectorMatch is one ranked hit from the vector index.
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type ChatSource struct {
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type ChatAnswer struct {
	Answer       string       `json:"answer"`
	Sources      []ChatSource `json:"sources"`
	ResponseTime float64      `json:"response_time"`
}
