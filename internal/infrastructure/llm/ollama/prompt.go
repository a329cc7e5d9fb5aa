package ollama

import (
	"fmt"
	"strings"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

func buildGroundedPrompt(question string, passages []domain.SearchResult) string {
	var contextBuilder strings.Builder
	for idx, passage := range passages {
		contextBuilder.WriteString(fmt.Sprintf("Document %d:\n%s\n\n", idx+1, passage.Text))
	}

	return fmt.Sprintf(`You are a helpful AI assistant. Answer the user's question based on the provided context documents.

Context Documents:
%s
User Question: %s

Instructions:
- Answer based primarily on the context provided
- If the context doesn't contain enough information, say so
- Be concise and accurate
- Cite which document number you're referencing when relevant

Answer:`, contextBuilder.String(), question)
}

func buildUngroundedPrompt(question string) string {
	return fmt.Sprintf("Answer this question: %s\n\nNote: No reference documents are available.", question)
}
