package rag

import (
	"errors"
	"fmt"
)

// Error kinds for the retrieval core. Backends and the manager wrap these
// with operation context; callers match with errors.Is.
var (
	// ErrInvalidChunking reports chunking parameters that can never
	// terminate (overlap >= size) or never produce output (size <= 0).
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrBackendUnavailable reports a store that could not be constructed
	// or reached. Operations are not retried at this layer.
	ErrBackendUnavailable = errors.New("vector store backend unavailable")

	// ErrDimensionMismatch reports an embedding whose length disagrees
	// with the collection's fixed dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedOperation reports a contractual operation the backend
	// cannot perform. Backends fail loudly with this, never no-op.
	ErrUnsupportedOperation = errors.New("operation not supported by backend")
)

func errDimension(id string, got, want int) error {
	return fmt.Errorf("%w: document %q has %d dimensions, collection expects %d",
		ErrDimensionMismatch, id, got, want)
}
