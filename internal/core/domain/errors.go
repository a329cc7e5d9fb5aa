package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client-surfaceable input problems: unsupported
	// file type, empty extracted text, out-of-bounds message length.
	ErrValidation = errors.New("invalid input")

	ErrDocumentNotFound = errors.New("document not found")

	// Collaborator failures. Logged with context, surfaced generically.
	ErrEmbedding  = errors.New("embedding failure")
	ErrIndex      = errors.New("vector index failure")
	ErrGeneration = errors.New("generation failure")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
