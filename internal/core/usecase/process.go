package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
)

const defaultEmbedConcurrency = 4

// ProcessDocumentUseCase runs the ingest pipeline for one uploaded document:
// extract -> chunk -> embed -> upsert. Embedding is all-or-nothing; a single
// failed chunk aborts the document with nothing upserted. The stored source
// file is deleted whether processing succeeds or fails.
type ProcessDocumentUseCase struct {
	repo             ports.DocumentRepository
	storage          ports.ObjectStorage
	extractor        ports.TextExtractor
	chunker          ports.Chunker
	embedder         ports.Embedder
	vectorDB         ports.VectorIndex
	embedConcurrency int
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	embedConcurrency int,
) *ProcessDocumentUseCase {
	if embedConcurrency <= 0 {
		embedConcurrency = defaultEmbedConcurrency
	}
	return &ProcessDocumentUseCase{
		repo:             repo,
		storage:          storage,
		extractor:        extractor,
		chunker:          chunker,
		embedder:         embedder,
		vectorDB:         vectorDB,
		embedConcurrency: embedConcurrency,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	// The uploaded source file is temporary: remove it on success and
	// failure alike, even if the request context is already cancelled.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := uc.storage.Delete(cleanupCtx, doc.StoragePath); err != nil {
			slog.Warn("upload_cleanup_failed", "document_id", doc.ID, "path", doc.StoragePath, "error", err)
		}
	}()

	result, err := uc.pipeline(ctx, doc)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusCleanedUp, ""); err != nil {
		return nil, fmt.Errorf("set status=cleaned_up: %w", err)
	}
	return result, nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return nil, err
	}

	chunks, err := uc.chunk(ctx, doc, text)
	if err != nil {
		return nil, err
	}

	vectors, err := uc.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusEmbedded, ""); err != nil {
		return nil, fmt.Errorf("set status=embedded: %w", err)
	}

	entries, ids := buildEntries(doc, chunks, vectors)
	if err := uc.vectorDB.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("upsert entries: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusStored, ""); err != nil {
		return nil, fmt.Errorf("set status=stored: %w", err)
	}

	return &domain.IngestResult{
		Success:     true,
		Message:     "document processed and stored successfully",
		DocumentIDs: ids,
		Filename:    doc.Filename,
		ChunksCount: len(chunks),
	}, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrValidation, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) chunk(ctx context.Context, doc *domain.Document, text string) ([]string, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "chunk document", errors.New("chunking produced zero chunks"))
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusChunked, ""); err != nil {
		return nil, fmt.Errorf("set status=chunked: %w", err)
	}
	if err := uc.repo.SetChunksCount(ctx, doc.ID, len(chunks)); err != nil {
		return nil, fmt.Errorf("record chunk count: %w", err)
	}
	return chunks, nil
}

// embedAll fans chunk embedding out with bounded concurrency and reassembles
// vectors in chunk order; chunk_index correctness depends on that order.
func (uc *ProcessDocumentUseCase) embedAll(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(uc.embedConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			vector, err := uc.embedder.Embed(groupCtx, chunk, domain.IntentDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func buildEntries(doc *domain.Document, chunks []string, vectors [][]float32) ([]domain.IndexEntry, []string) {
	entries := make([]domain.IndexEntry, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i := range chunks {
		id := uuid.NewString()
		ids = append(ids, id)
		entries = append(entries, domain.IndexEntry{
			ID:     id,
			Vector: vectors[i],
			Payload: domain.ChunkPayload{
				Text:        chunks[i],
				Filename:    doc.Filename,
				FileType:    doc.FileType,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				UploadedAt:  doc.CreatedAt,
			},
		})
	}
	return entries, ids
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	return uc.repo.UpdateStatus(context.WithoutCancel(ctx), documentID, domain.StatusFailed, processErr.Error())
}
