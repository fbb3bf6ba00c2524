package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

const analysisTemperature = 0.1

// Analyze produces a structured legal analysis of raw text. It always
// returns a structurally complete result: when the model is unconfigured or
// the text is blank, the canned fallback comes back immediately with zero
// processing time; on transport or parse failure, the fallback is augmented
// with an Error description. Callers branch on Error only.
func (s *AIService) Analyze(ctx context.Context, text string) domain.AnalysisResult {
	if s.model == nil || strings.TrimSpace(text) == "" {
		return domain.FallbackAnalysis()
	}

	start := time.Now()

	snippet := text
	if len(snippet) > s.opts.AnalysisMaxChars {
		snippet = snippet[:s.opts.AnalysisMaxChars]
	}

	raw, err := s.model.Complete(ctx, buildAnalysisMessages(snippet), analysisTemperature)
	if err != nil {
		slog.Error("analysis completion failed", "error", err)
		return fallbackWithError(err.Error(), start)
	}

	cleaned := stripCodeFence(raw)

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		slog.Error("analysis response is not valid json",
			"error", err, "payload_chars", len(cleaned))
		return fallbackWithError(fmt.Sprintf("model response parsing failed: %v", err), start)
	}

	result.Normalize()
	result.ProcessingTime = time.Since(start).Seconds()
	return result
}

func fallbackWithError(reason string, start time.Time) domain.AnalysisResult {
	fb := domain.FallbackAnalysis()
	fb.Error = reason
	fb.ProcessingTime = time.Since(start).Seconds()
	return fb
}

// stripCodeFence unwraps ```json ... ``` fencing some models add despite
// the no-prose instruction.
func stripCodeFence(raw string) string {
	out := strings.TrimSpace(raw)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}
