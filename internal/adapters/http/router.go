// Package httpadapter exposes the ingest and query use cases over a
// small JSON HTTP surface.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
	"github.com/mpetrenko/rag-chatbot/internal/observability/metrics"
)

type Router struct {
	service        string
	maxUploadBytes int64

	ingest ports.DocumentIngestor
	query  ports.QueryService
	docs   ports.DocumentReader
	admin  ports.CollectionAdmin

	metrics *metrics.HTTPServerMetrics
}

// NewRouter wires handlers against the inbound ports. The metrics
// argument may be nil; tests run without a registry.
func NewRouter(
	service string,
	maxUploadBytes int64,
	ingest ports.DocumentIngestor,
	query ports.QueryService,
	docs ports.DocumentReader,
	admin ports.CollectionAdmin,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		ingest:         ingest,
		query:          query,
		docs:           docs,
		admin:          admin,
		metrics:        m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentSubresource)
	mux.HandleFunc("/v1/chat/query", rt.chatQuery)
	mux.HandleFunc("/v1/stats", rt.collectionStats)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if rt.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, doc.FileType)
	}
	writeJSON(w, http.StatusAccepted, doc)
}

// documentSubresource handles /v1/documents/{id}: GET returns the ingest
// state, DELETE drops the document's chunks from the index by filename.
func (rt *Router) documentSubresource(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.docs.GetByID(r.Context(), key)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		deleted := rt.admin.DeleteByFilename(r.Context(), key)
		writeJSON(w, http.StatusOK, map[string]any{
			"filename": key,
			"deleted":  deleted,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) chatQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), req.Message, req.ConversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		// One score per retrieved chunk; sources are deduplicated and
		// would undercount retrieval.
		rt.metrics.RecordQuery(rt.service, len(answer.RelevanceScores), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

// collectionStats never fails; a degraded index yields zero counts.
func (rt *Router) collectionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, rt.admin.CollectionStats(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
