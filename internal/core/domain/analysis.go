package domain

const fallbackSummary = "Analysis unavailable. Manual legal review required."

type AnalysisResult struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	Clauses         []string `json:"clauses"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
	ProcessingTime  float64  `json:"processing_time"`
	Error           string   `json:"error,omitempty"`
}

// FallbackAnalysis is the canned result returned when analysis cannot run.
// Callers branch on the Error field only, never on missing keys.
func FallbackAnalysis() AnalysisResult {
	return AnalysisResult{
		Summary:         fallbackSummary,
		KeyPoints:       []string{},
		Clauses:         []string{},
		Risks:           []string{},
		Recommendations: []string{"Manual legal review required"},
		ProcessingTime:  0.0,
	}
}

// Normalize backfills nil collections so every result is structurally complete.
func (r *AnalysisResult) Normalize() {
	if r.KeyPoints == nil {
		r.KeyPoints = []string{}
	}
	if r.Clauses == nil {
		r.Clauses = []string{}
	}
	if r.Risks == nil {
		r.Risks = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
}
