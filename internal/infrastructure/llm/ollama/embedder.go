package ollama

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

// Embedder is the embedding gateway. Ollama has no task-type parameter, so
// document/query intents map to the nomic-embed-text instruction prefixes.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, text string, intent domain.EmbeddingIntent) ([]float32, error) {
	if e.client.limiter != nil {
		if err := e.client.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{prefixForIntent(intent) + text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}

	call := func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}

	var err error
	if e.client.executor != nil {
		err = e.client.executor.Execute(ctx, "ollama.embed", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapCollaboratorError(domain.ErrEmbedding, "embed", err)
	}

	if len(response.Embeddings) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed", errors.New("empty embedding result"))
	}
	vector := response.Embeddings[0]
	if e.client.dimension > 0 && len(vector) != e.client.dimension {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed",
			fmt.Errorf("vector dimension %d, want %d", len(vector), e.client.dimension),
		)
	}
	return vector, nil
}

func prefixForIntent(intent domain.EmbeddingIntent) string {
	if intent == domain.IntentQuery {
		return "search_query: "
	}
	return "search_document: "
}
