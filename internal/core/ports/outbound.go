package ports

import (
	"context"
	"io"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

// Chunker splits normalized text into overlapping retrieval units.
type Chunker interface {
	Split(text string) []string
}

// Embedder converts text into a fixed-dimensionality vector. Implementations
// must validate the dimension and fail rather than hand back a mismatched
// vector; callers never upsert or search with one.
type Embedder interface {
	Embed(ctx context.Context, text string, intent domain.EmbeddingIntent) ([]float32, error)
}

// VectorIndex is the persistent nearest-neighbor store for one collection.
type VectorIndex interface {
	// EnsureCollection creates the collection (dimension, cosine metric)
	// if missing. Idempotent.
	EnsureCollection(ctx context.Context) error
	// Upsert stores entries; idempotent per entry id. Entries are visible
	// to subsequent searches on the same client.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	// Search returns up to topK hits by descending score; empty result is
	// not an error. A nil filter matches everything.
	Search(ctx context.Context, queryVector []float32, topK int, filter map[string]string) ([]domain.SearchResult, error)
	// DeleteByMetadata removes all entries whose payload field exactly
	// matches value. Best-effort: failures are logged and reported as
	// false, never returned as an error.
	DeleteByMetadata(ctx context.Context, field, value string) bool
	// CollectionInfo reports collection stats, degrading to a zero value
	// on failure.
	CollectionInfo(ctx context.Context) domain.CollectionInfo
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	// GenerateGrounded answers from retrieved passages, citing them by
	// their position in the passages slice.
	GenerateGrounded(ctx context.Context, question string, passages []domain.SearchResult) (string, error)
	// GenerateUngrounded answers with an explicit note that no reference
	// material was found.
	GenerateUngrounded(ctx context.Context, question string) (string, error)
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// ObjectStorage stores uploaded source documents until ingest completes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes document ingest events.
type MessageQueue interface {
	PublishDocumentReceived(ctx context.Context, documentID string) error
	SubscribeDocumentReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentRepository persists document metadata and ingest status.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunksCount(ctx context.Context, id string, count int) error
}
