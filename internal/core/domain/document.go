package domain

import "time"

// DocumentStatus tracks a document through the ingest pipeline. Transitions
// are received -> chunked -> embedded -> stored -> cleaned_up; any failure
// moves the document to failed.
type DocumentStatus string

const (
	StatusReceived  DocumentStatus = "received"
	StatusChunked   DocumentStatus = "chunked"
	StatusEmbedded  DocumentStatus = "embedded"
	StatusStored    DocumentStatus = "stored"
	StatusCleanedUp DocumentStatus = "cleaned_up"
	StatusFailed    DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	FileType    string         `json:"file_type"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	ChunksCount int            `json:"chunks_count,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is the atomic retrieval unit produced by the splitter. Index reflects
// the chunk's position in the source document and is never revised.
type Chunk struct {
	Text       string
	Index      int
	DocumentID string
}

// ChunkPayload is the structured metadata stored alongside each vector.
// Extra carries forward-compatible fields without loosening the named ones.
type ChunkPayload struct {
	Text        string            `json:"text"`
	Filename    string            `json:"filename"`
	FileType    string            `json:"file_type"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	UploadedAt  time.Time         `json:"upload_timestamp"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// IndexEntry is one vector plus payload, owned by the vector index after
// upsert. The vector length must equal the deployment's embedding dimension.
type IndexEntry struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

type IngestResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	DocumentIDs []string `json:"document_ids"`
	Filename    string   `json:"filename"`
	ChunksCount int      `json:"chunks_count"`
}
