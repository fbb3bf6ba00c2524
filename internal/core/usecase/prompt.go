package usecase

import (
	"fmt"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

const analysisSystemPrompt = `You are a legal document analysis expert. Analyze the legal document and return STRICT JSON format with the following structure:
{
  "summary": "string",
  "key_points": ["string"],
  "clauses": [],
  "risks": [],
  "recommendations": []
}

Return ONLY the JSON object, no additional text.`

const chatSystemPrompt = `You are a helpful legal document assistant. Answer questions based STRICTLY on the provided context from a legal document.

IMPORTANT RULES:
1. Use ONLY the information in the provided context
2. If the context has the answer, provide it clearly
3. If you cannot find the answer in the context, say: "Based on the provided context, I cannot find specific information about [topic]."
4. Do NOT make up any information
5. Keep answers concise but complete`

func buildAnalysisMessages(text string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: analysisSystemPrompt},
		{Role: domain.RoleUser, Content: "Document to analyze:\n" + text},
	}
}

func buildChatMessages(context, question string) []domain.ChatMessage {
	user := fmt.Sprintf(`Here is context from a legal document:

%s

Based ONLY on the context above, answer this question:

%s

Remember:
- Answer using ONLY the information from the context
- If the answer isn't in the context, say so
- Be specific and accurate`, context, question)

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: chatSystemPrompt},
		{Role: domain.RoleUser, Content: user},
	}
}
