package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
)

const (
	defaultTopK      = 5
	maxMessageLength = 5000
)

// sourceUnknown substitutes a missing filename in source attribution.
const sourceUnknown = "Unknown"

// QueryUseCase answers a user message with retrieval-augmented generation:
// embed the query, retrieve top-K passages, generate a grounded answer with
// source attribution, or an ungrounded one when the index has nothing.
type QueryUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorIndex
	generator ports.AnswerGenerator
	topK      int
}

func NewQueryUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	generator ports.AnswerGenerator,
	topK int,
) *QueryUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &QueryUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		generator: generator,
		topK:      topK,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, message, conversationID string) (*domain.Answer, error) {
	message = strings.TrimSpace(message)
	if length := utf8.RuneCountInString(message); length == 0 || length > maxMessageLength {
		return nil, domain.WrapError(
			domain.ErrValidation,
			"query",
			fmt.Errorf("message length %d out of bounds [1, %d]", length, maxMessageLength),
		)
	}

	// The conversation id is an opaque correlation token: passed through
	// unchanged when supplied, minted fresh otherwise. Nothing is
	// persisted against it.
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	queryVector, err := uc.embedder.Embed(ctx, message, domain.IntentQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := uc.vectorDB.Search(ctx, queryVector, uc.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	if len(results) == 0 {
		response, err := uc.generator.GenerateUngrounded(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		return &domain.Answer{
			Response:       response,
			ConversationID: conversationID,
			Sources:        []string{},
			HasContext:     false,
		}, nil
	}

	response, err := uc.generator.GenerateGrounded(ctx, message, results)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	scores := make([]float64, 0, len(results))
	for _, result := range results {
		scores = append(scores, result.Score)
	}

	return &domain.Answer{
		Response:        response,
		ConversationID:  conversationID,
		Sources:         dedupeSources(results),
		HasContext:      true,
		RelevanceScores: scores,
	}, nil
}

// dedupeSources collects each result's filename once, keeping
// first-occurrence retrieval order so citation numbering stays stable across
// identical queries.
func dedupeSources(results []domain.SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, result := range results {
		name := result.Payload.Filename
		if name == "" {
			name = sourceUnknown
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}
