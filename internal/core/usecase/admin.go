package usecase

import (
	"context"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
)

// CollectionAdminUseCase exposes collection introspection and best-effort
// cleanup of indexed documents.
type CollectionAdminUseCase struct {
	vectorDB ports.VectorIndex
}

func NewCollectionAdminUseCase(vectorDB ports.VectorIndex) *CollectionAdminUseCase {
	return &CollectionAdminUseCase{vectorDB: vectorDB}
}

func (uc *CollectionAdminUseCase) CollectionStats(ctx context.Context) domain.CollectionInfo {
	return uc.vectorDB.CollectionInfo(ctx)
}

// DeleteByFilename removes every indexed chunk of one source document.
// Best-effort: returns false on failure, never an error.
func (uc *CollectionAdminUseCase) DeleteByFilename(ctx context.Context, filename string) bool {
	return uc.vectorDB.DeleteByMetadata(ctx, "filename", filename)
}
