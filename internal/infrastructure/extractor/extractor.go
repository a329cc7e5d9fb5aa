// Package extractor turns stored source documents into plain text, keyed by
// the document's file type.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mpetrenko/rag-chatbot/internal/core/domain"
	"github.com/mpetrenko/rag-chatbot/internal/core/ports"
	"github.com/mpetrenko/rag-chatbot/internal/infrastructure/chunking"
)

type extractFunc func(raw []byte) (string, error)

type Dispatcher struct {
	storage ports.ObjectStorage
	byType  map[string]extractFunc
}

func NewDispatcher(storage ports.ObjectStorage) *Dispatcher {
	return &Dispatcher{
		storage: storage,
		byType: map[string]extractFunc{
			"txt":  extractPlaintext,
			"pdf":  extractPDF,
			"xlsx": extractExcel,
			"xls":  extractExcel,
		},
	}
}

// SupportedTypes lists file extensions the dispatcher can extract, for
// upload validation.
func (d *Dispatcher) SupportedTypes() []string {
	out := make([]string, 0, len(d.byType))
	for fileType := range d.byType {
		out = append(out, fileType)
	}
	return out
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	fileType := strings.ToLower(doc.FileType)
	extract, ok := d.byType[fileType]
	if !ok {
		return "", domain.WrapError(domain.ErrValidation, "extract text", fmt.Errorf("unsupported file type: %s", fileType))
	}

	reader, err := d.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := extract(raw)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", fileType, err)
	}
	text = chunking.NormalizeText(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrValidation, "extract text", errors.New("no text could be extracted from document"))
	}
	return text, nil
}
