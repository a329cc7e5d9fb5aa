package ports

import (
	"context"
	"io"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingest of an
// uploaded document into the vector index.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) (*domain.IngestResult, error)
}

// QueryService is the inbound contract for retrieval-augmented answers.
type QueryService interface {
	Answer(ctx context.Context, message, conversationID string) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// StatsProvider reports vector collection statistics. Never fails; degraded
// infrastructure yields a zero-value snapshot.
type StatsProvider interface {
	CollectionStats(ctx context.Context) domain.CollectionInfo
}

// CollectionAdmin adds best-effort index cleanup to the stats contract.
type CollectionAdmin interface {
	StatsProvider
	DeleteByFilename(ctx context.Context, filename string) bool
}
