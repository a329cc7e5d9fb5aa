package qdrant

import (
	"fmt"
	"time"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
)

const (
	payloadText        = "text"
	payloadFilename    = "filename"
	payloadFileType    = "file_type"
	payloadChunkIndex  = "chunk_index"
	payloadTotalChunks = "total_chunks"
	payloadUploadedAt  = "upload_timestamp"
)

func payloadToMap(p domain.ChunkPayload) map[string]any {
	out := map[string]any{
		payloadText:        p.Text,
		payloadFilename:    p.Filename,
		payloadFileType:    p.FileType,
		payloadChunkIndex:  p.ChunkIndex,
		payloadTotalChunks: p.TotalChunks,
		payloadUploadedAt:  p.UploadedAt.UTC().Format(time.RFC3339),
	}
	for key, value := range p.Extra {
		if _, reserved := out[key]; reserved {
			continue
		}
		out[key] = value
	}
	return out
}

func payloadFromMap(m map[string]any) domain.ChunkPayload {
	payload := domain.ChunkPayload{
		Text:        stringField(m, payloadText),
		Filename:    stringField(m, payloadFilename),
		FileType:    stringField(m, payloadFileType),
		ChunkIndex:  intField(m, payloadChunkIndex),
		TotalChunks: intField(m, payloadTotalChunks),
	}
	if ts := stringField(m, payloadUploadedAt); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			payload.UploadedAt = parsed
		}
	}

	for key, value := range m {
		switch key {
		case payloadText, payloadFilename, payloadFileType, payloadChunkIndex, payloadTotalChunks, payloadUploadedAt:
			continue
		}
		if payload.Extra == nil {
			payload.Extra = make(map[string]string)
		}
		payload.Extra[key] = fmt.Sprintf("%v", value)
	}
	return payload
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
