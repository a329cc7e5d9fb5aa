package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/observability/metrics"
)

type ingestFake struct {
	doc      *domain.Document
	err      error
	filename string
	bodyLen  int
}

func (f *ingestFake) Upload(_ context.Context, filename string, body io.Reader) (*domain.Document, error) {
	f.filename = filename
	data, _ := io.ReadAll(body)
	f.bodyLen = len(data)
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type queryFake struct {
	answer  *domain.Answer
	err     error
	message string
	convID  string
}

func (f *queryFake) Answer(_ context.Context, message, conversationID string) (*domain.Answer, error) {
	f.message = message
	f.convID = conversationID
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type docsFake struct {
	doc *domain.Document
	err error
}

func (f *docsFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type adminFake struct {
	info        domain.CollectionInfo
	deleted     bool
	deletedName string
}

func (f *adminFake) CollectionStats(context.Context) domain.CollectionInfo {
	return f.info
}

func (f *adminFake) DeleteByFilename(_ context.Context, filename string) bool {
	f.deletedName = filename
	return f.deleted
}

func newTestRouter(ingest *ingestFake, query *queryFake, docs *docsFake, admin *adminFake) http.Handler {
	if ingest == nil {
		ingest = &ingestFake{}
	}
	if query == nil {
		query = &queryFake{}
	}
	if docs == nil {
		docs = &docsFake{}
	}
	if admin == nil {
		admin = &adminFake{}
	}
	return NewRouter("api-test", 1<<20, ingest, query, docs, admin, nil).Handler()
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadDocumentReturnsAccepted(t *testing.T) {
	ingest := &ingestFake{doc: &domain.Document{
		ID:       "doc-1",
		Filename: "report.pdf",
		FileType: "pdf",
		Status:   domain.StatusReceived,
	}}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartUpload(t, "report.pdf", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.filename != "report.pdf" {
		t.Fatalf("expected filename to reach the ingestor, got %q", ingest.filename)
	}
	if ingest.bodyLen != len("hello") {
		t.Fatalf("expected file body to reach the ingestor, got %d bytes", ingest.bodyLen)
	}

	var doc domain.Document
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != "doc-1" || doc.Status != domain.StatusReceived {
		t.Fatalf("unexpected document in response: %+v", doc)
	}
}

func TestUploadDocumentRequiresFileField(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentMapsValidationTo400(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrValidation, "upload", errors.New("unsupported file type"))}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartUpload(t, "virus.exe", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentRejectsOversizedBody(t *testing.T) {
	ingest := &ingestFake{}
	handler := NewRouter("api-test", 64, ingest, &queryFake{}, &docsFake{}, &adminFake{}, nil).Handler()

	body, contentType := multipartUpload(t, "big.txt", strings.Repeat("a", 4096))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestChatQueryReturnsAnswer(t *testing.T) {
	query := &queryFake{answer: &domain.Answer{
		Response:        "the answer",
		ConversationID:  "conv-9",
		Sources:         []string{"report.pdf"},
		HasContext:      true,
		RelevanceScores: []float64{0.91},
	}}
	handler := newTestRouter(nil, query, nil, nil)

	payload, _ := json.Marshal(map[string]string{
		"message":         "what does the report say?",
		"conversation_id": "conv-9",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if query.message != "what does the report say?" || query.convID != "conv-9" {
		t.Fatalf("request not passed through: message=%q conv=%q", query.message, query.convID)
	}

	var answer domain.Answer
	if err := json.Unmarshal(res.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.Response != "the answer" || !answer.HasContext {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "report.pdf" {
		t.Fatalf("unexpected sources: %v", answer.Sources)
	}
}

func TestChatQueryObservesRetrievedChunkCount(t *testing.T) {
	// Three retrieved chunks that dedupe to a single source file; the
	// histogram must see the chunk count.
	query := &queryFake{answer: &domain.Answer{
		Response:        "the answer",
		ConversationID:  "conv-1",
		Sources:         []string{"report.pdf"},
		HasContext:      true,
		RelevanceScores: []float64{0.9, 0.8, 0.7},
	}}
	httpMetrics := metrics.NewHTTPServerMetrics("api-test")
	handler := NewRouter("api-test", 1<<20, &ingestFake{}, query, &docsFake{}, &adminFake{}, httpMetrics).Handler()

	payload, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	scrape := httptest.NewRecorder()
	httpMetrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	if !strings.Contains(body, `ragchat_query_retrieved_chunks_sum{service="api-test"} 3`) {
		t.Fatalf("expected retrieved_chunks to observe 3 chunks, metrics:\n%s", body)
	}
	if !strings.Contains(body, `ragchat_query_retrieval_hit_total{service="api-test"} 1`) {
		t.Fatalf("expected one retrieval hit, metrics:\n%s", body)
	}
}

func TestChatQueryRejectsInvalidJSON(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", strings.NewReader("{not json"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatQueryMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.WrapError(domain.ErrValidation, "answer", errors.New("message too long")), http.StatusBadRequest},
		{"temporary", domain.WrapError(domain.ErrTemporary, "answer", errors.New("backend down")), http.StatusServiceUnavailable},
		{"embedding", domain.WrapError(domain.ErrEmbedding, "answer", errors.New("bad vector")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(nil, &queryFake{err: tc.err}, nil, nil)

			payload, _ := json.Marshal(map[string]string{"message": "hi"})
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", bytes.NewReader(payload))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestChatQueryHidesCollaboratorDetails(t *testing.T) {
	internal := "Post \"http://10.0.0.7:11434/api/embed\": connection refused"
	query := &queryFake{err: domain.WrapError(domain.ErrEmbedding, "embed query", errors.New(internal))}
	handler := newTestRouter(nil, query, nil, nil)

	payload, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	body := res.Body.String()
	if strings.Contains(body, "10.0.0.7") || strings.Contains(body, "embedding failure") {
		t.Fatalf("internal error chain leaked to the client: %s", body)
	}

	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != "internal error" {
		t.Fatalf("expected generic message, got %q", out.Error)
	}
}

func TestChatQueryKeepsValidationDetail(t *testing.T) {
	query := &queryFake{err: domain.WrapError(domain.ErrValidation, "query", errors.New("message length 0 out of bounds [1, 5000]"))}
	handler := newTestRouter(nil, query, nil, nil)

	payload, _ := json.Marshal(map[string]string{"message": " "})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "out of bounds") {
		t.Fatalf("expected validation detail in response, got %s", res.Body.String())
	}
}

func TestGetDocumentByIDReturns404ForMissing(t *testing.T) {
	docs := &docsFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))}
	handler := newTestRouter(nil, nil, docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetDocumentByIDReturnsDocument(t *testing.T) {
	docs := &docsFake{doc: &domain.Document{
		ID:          "doc-2",
		Filename:    "notes.txt",
		FileType:    "txt",
		Status:      domain.StatusCleanedUp,
		ChunksCount: 4,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	handler := newTestRouter(nil, nil, docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var doc domain.Document
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != "doc-2" || doc.ChunksCount != 4 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestDeleteDocumentReportsOutcome(t *testing.T) {
	admin := &adminFake{deleted: true}
	handler := newTestRouter(nil, nil, nil, admin)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/report.pdf", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if admin.deletedName != "report.pdf" {
		t.Fatalf("expected delete by filename, got %q", admin.deletedName)
	}

	var out struct {
		Filename string `json:"filename"`
		Deleted  bool   `json:"deleted"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Deleted || out.Filename != "report.pdf" {
		t.Fatalf("unexpected delete response: %+v", out)
	}
}

func TestCollectionStatsAlwaysResponds(t *testing.T) {
	admin := &adminFake{info: domain.CollectionInfo{Name: "documents", PointsCount: 42, Status: "green"}}
	handler := newTestRouter(nil, nil, nil, admin)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var info domain.CollectionInfo
	if err := json.Unmarshal(res.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.PointsCount != 42 || info.Status != "green" {
		t.Fatalf("unexpected stats: %+v", info)
	}
}

func TestRequestIDIsEchoedBack(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("expected inbound request id to be echoed, got %q", got)
	}
}

func TestRequestIDIsAssignedWhenMissing(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id header")
	}
}
