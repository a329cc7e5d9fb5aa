package ollama

import (
	"context"
	"strings"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateGrounded(ctx context.Context, question string, passages []domain.SearchResult) (string, error) {
	return g.generate(ctx, buildGroundedPrompt(question, passages))
}

func (g *Generator) GenerateUngrounded(ctx context.Context, question string) (string, error) {
	return g.generate(ctx, buildUngroundedPrompt(question))
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return g.client.postJSON(callCtx, "/api/generate", request, &response, "generate")
	}

	var err error
	if g.client.executor != nil {
		err = g.client.executor.Execute(ctx, "ollama.generate", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapCollaboratorError(domain.ErrGeneration, "generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
