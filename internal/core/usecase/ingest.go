package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
)

// IngestDocumentUseCase accepts an upload, stores the raw file, records
// metadata and hands the document to the async processing pipeline.
type IngestDocumentUseCase struct {
	repo         ports.DocumentRepository
	storage      ports.ObjectStorage
	queue        ports.MessageQueue
	allowedTypes map[string]struct{}
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	allowedTypes []string,
) *IngestDocumentUseCase {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &IngestDocumentUseCase{
		repo:         repo,
		storage:      storage,
		queue:        queue,
		allowedTypes: allowed,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename string,
	body io.Reader,
) (*domain.Document, error) {
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := uc.allowedTypes[fileType]; !ok {
		return nil, domain.WrapError(domain.ErrValidation, "upload", fmt.Errorf("unsupported file type: %q", fileType))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filepath.Base(filename),
		FileType:    fileType,
		StoragePath: storageKey,
		Status:      domain.StatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentReceived(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingest event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
