package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

type processRepoFake struct {
	doc         *domain.Document
	getErr      error
	statusCalls []domain.DocumentStatus
	lastErrMsg  string
	chunksCount int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, status)
	f.lastErrMsg = errMessage
	return nil
}

func (f *processRepoFake) SetChunksCount(_ context.Context, _ string, count int) error {
	f.chunksCount = count
	return nil
}

type storageSpy struct {
	deleted []string
}

func (f *storageSpy) Save(context.Context, string, io.Reader) error { return nil }
func (f *storageSpy) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (f *storageSpy) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type processExtractorFake struct {
	text string
	err  error
}

func (f *processExtractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type processChunkerFake struct {
	chunks []string
}

func (f *processChunkerFake) Split(string) []string { return f.chunks }

type processEmbedderFake struct {
	failOn string
}

func (f *processEmbedderFake) Embed(_ context.Context, text string, _ domain.EmbeddingIntent) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed", errors.New("dimension mismatch"))
	}
	// Encode the chunk number so tests can assert ordered reassembly.
	var n float32
	_, _ = fmt.Sscanf(text, "chunk-%f", &n)
	return []float32{n, n}, nil
}

type processVectorFake struct {
	upserted  []domain.IndexEntry
	upsertErr error
}

func (f *processVectorFake) EnsureCollection(context.Context) error { return nil }
func (f *processVectorFake) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, entries...)
	return nil
}
func (f *processVectorFake) Search(context.Context, []float32, int, map[string]string) ([]domain.SearchResult, error) {
	return nil, nil
}
func (f *processVectorFake) DeleteByMetadata(context.Context, string, string) bool { return true }
func (f *processVectorFake) CollectionInfo(context.Context) domain.CollectionInfo {
	return domain.CollectionInfo{}
}

func newProcessFixture(chunks []string) (*ProcessDocumentUseCase, *processRepoFake, *storageSpy, *processVectorFake) {
	repo := &processRepoFake{doc: &domain.Document{
		ID:          "doc-1",
		Filename:    "report.pdf",
		FileType:    "pdf",
		StoragePath: "doc-1_report.pdf",
		Status:      domain.StatusReceived,
	}}
	storage := &storageSpy{}
	vector := &processVectorFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		storage,
		&processExtractorFake{text: "extracted text"},
		&processChunkerFake{chunks: chunks},
		&processEmbedderFake{},
		vector,
		2,
	)
	return uc, repo, storage, vector
}

func TestProcessByIDSuccessFlow(t *testing.T) {
	uc, repo, storage, vector := newProcessFixture([]string{"chunk-0", "chunk-1", "chunk-2"})

	result, err := uc.ProcessByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if !result.Success || result.ChunksCount != 3 || len(result.DocumentIDs) != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Filename != "report.pdf" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}

	wantStatuses := []domain.DocumentStatus{
		domain.StatusChunked,
		domain.StatusEmbedded,
		domain.StatusStored,
		domain.StatusCleanedUp,
	}
	if len(repo.statusCalls) != len(wantStatuses) {
		t.Fatalf("expected %d status transitions, got %v", len(wantStatuses), repo.statusCalls)
	}
	for i, want := range wantStatuses {
		if repo.statusCalls[i] != want {
			t.Fatalf("status %d = %s, want %s", i, repo.statusCalls[i], want)
		}
	}
	if repo.chunksCount != 3 {
		t.Fatalf("expected chunk count 3 recorded, got %d", repo.chunksCount)
	}

	if len(vector.upserted) != 3 {
		t.Fatalf("expected 3 upserted entries, got %d", len(vector.upserted))
	}
	for i, entry := range vector.upserted {
		if entry.Payload.ChunkIndex != i {
			t.Fatalf("entry %d has chunk_index %d", i, entry.Payload.ChunkIndex)
		}
		if entry.Payload.TotalChunks != 3 {
			t.Fatalf("entry %d has total_chunks %d", i, entry.Payload.TotalChunks)
		}
		if entry.Payload.Filename != "report.pdf" || entry.Payload.FileType != "pdf" {
			t.Fatalf("entry %d payload metadata: %+v", i, entry.Payload)
		}
		// The fake embedder encodes the chunk number into the vector.
		if entry.Vector[0] != float32(i) {
			t.Fatalf("entry %d vector out of order: %v", i, entry.Vector)
		}
	}

	if len(storage.deleted) != 1 || storage.deleted[0] != "doc-1_report.pdf" {
		t.Fatalf("expected stored file deleted, got %v", storage.deleted)
	}
}

func TestProcessByIDEmbedFailureAbortsWithoutUpsert(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Filename: "a.txt", FileType: "txt", StoragePath: "doc-1_a.txt"}}
	storage := &storageSpy{}
	vector := &processVectorFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		storage,
		&processExtractorFake{text: "text"},
		&processChunkerFake{chunks: []string{"chunk-0", "bad-chunk", "chunk-2"}},
		&processEmbedderFake{failOn: "bad-chunk"},
		vector,
		2,
	)

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error kind, got %v", err)
	}
	if len(vector.upserted) != 0 {
		t.Fatalf("expected no upserted entries, got %d", len(vector.upserted))
	}
	if len(storage.deleted) != 1 {
		t.Fatalf("expected cleanup despite failure, got %v", storage.deleted)
	}
	if last := repo.statusCalls[len(repo.statusCalls)-1]; last != domain.StatusFailed {
		t.Fatalf("expected final status failed, got %s", last)
	}
	if repo.lastErrMsg == "" {
		t.Fatalf("expected failure message recorded")
	}
}

func TestProcessByIDEmptyTextIsValidationError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "k"}}
	storage := &storageSpy{}
	uc := NewProcessDocumentUseCase(
		repo,
		storage,
		&processExtractorFake{text: "   "},
		&processChunkerFake{},
		&processEmbedderFake{},
		&processVectorFake{},
		1,
	)

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if len(storage.deleted) != 1 {
		t.Fatalf("expected cleanup on validation failure")
	}
}

func TestProcessByIDUpsertFailurePropagates(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "k"}}
	vector := &processVectorFake{upsertErr: domain.WrapError(domain.ErrIndex, "upsert", errors.New("down"))}
	uc := NewProcessDocumentUseCase(
		repo,
		&storageSpy{},
		&processExtractorFake{text: "text"},
		&processChunkerFake{chunks: []string{"chunk-0"}},
		&processEmbedderFake{},
		vector,
		1,
	)

	_, err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrIndex) {
		t.Fatalf("expected index error kind, got %v", err)
	}
}
