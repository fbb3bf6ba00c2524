package usecase

import (
	"github.com/dmfedotov/legal-doc-assistant/internal/core/ports"
)

// Tuning defaults match the values the pipeline was calibrated with; all of
// them are overridable through configuration.
const (
	defaultTopK          = 8
	defaultMinScore      = 0.3
	defaultMaxSources    = 5
	defaultMinContext    = 50
	defaultAnalysisChars = 5000
)

type AIServiceOptions struct {
	TopK             int
	MinScore         float64
	MaxSources       int
	MinContextChars  int
	AnalysisMaxChars int
	ModelName        string
}

func (o AIServiceOptions) normalize() AIServiceOptions {
	out := o
	if out.TopK <= 0 {
		out.TopK = defaultTopK
	}
	if out.MinScore <= 0 {
		out.MinScore = defaultMinScore
	}
	if out.MaxSources <= 0 {
		out.MaxSources = defaultMaxSources
	}
	if out.MinContextChars <= 0 {
		out.MinContextChars = defaultMinContext
	}
	if out.AnalysisMaxChars <= 0 {
		out.AnalysisMaxChars = defaultAnalysisChars
	}
	return out
}

// AIService is the composed RAG core: chunking, embedding, vector index and
// generative model behind one surface. The index and model may be nil when
// their configuration is absent; every dependent operation checks that flag
// and returns a fixed informative result instead of erroring.
type AIService struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
	model    ports.ChatModel
	opts     AIServiceOptions
}

func NewAIService(
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	model ports.ChatModel,
	opts AIServiceOptions,
) *AIService {
	return &AIService{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		model:    model,
		opts:     opts.normalize(),
	}
}

// ModelName reports the generative model identifier for persistence.
func (s *AIService) ModelName() string {
	return s.opts.ModelName
}
