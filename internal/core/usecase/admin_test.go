package usecase

import (
	"context"
	"testing"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

type adminVectorFake struct {
	processVectorFake
	info         domain.CollectionInfo
	deleteField  string
	deleteValue  string
	deleteResult bool
}

func (f *adminVectorFake) DeleteByMetadata(_ context.Context, field, value string) bool {
	f.deleteField = field
	f.deleteValue = value
	return f.deleteResult
}

func (f *adminVectorFake) CollectionInfo(context.Context) domain.CollectionInfo {
	return f.info
}

func TestDeleteByFilenameFiltersOnFilenameField(t *testing.T) {
	vector := &adminVectorFake{deleteResult: true}
	uc := NewCollectionAdminUseCase(vector)

	if !uc.DeleteByFilename(context.Background(), "report.pdf") {
		t.Fatal("expected delete to report success")
	}
	if vector.deleteField != "filename" || vector.deleteValue != "report.pdf" {
		t.Fatalf("expected filter on filename=report.pdf, got %s=%s", vector.deleteField, vector.deleteValue)
	}
}

func TestCollectionStatsPassesThrough(t *testing.T) {
	vector := &adminVectorFake{info: domain.CollectionInfo{Name: "documents", PointsCount: 7, Status: "green"}}
	uc := NewCollectionAdminUseCase(vector)

	info := uc.CollectionStats(context.Background())
	if info.PointsCount != 7 || info.Status != "green" {
		t.Fatalf("unexpected stats: %+v", info)
	}
}
