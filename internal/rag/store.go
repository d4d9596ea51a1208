package rag

import (
	"context"
	"fmt"
	"strings"
)

// VectorStore is the storage contract shared by every backend. Implementations
// differ only in storage medium and failure profile, never in observable
// semantics.
type VectorStore interface {
	// Add stores or overwrites a document by ID. Safe to call concurrently
	// with Search; concurrent Adds must not lose documents.
	Add(ctx context.Context, doc Document) error

	// Search returns at most topK results ordered by descending cosine
	// similarity, ties broken by insertion order. topK <= 0 returns nil.
	Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Clear removes all documents. Idempotent.
	Clear(ctx context.Context) error

	// IndexedSources returns the distinct source metadata values.
	IndexedSources(ctx context.Context) ([]string, error)

	// RemoveBySource removes documents whose source equals source or is
	// path-nested under it, returning the removed count. No match is not
	// an error.
	RemoveBySource(ctx context.Context, source string) (int, error)

	// Close releases backend resources.
	Close() error
}

// Storage mode identifiers.
const (
	ModeMemory   = "memory"
	ModeEmbedded = "embedded"
	ModeRemote   = "remote"
)

// StorageMode selects a backend. Immutable for the lifetime of a store.
type StorageMode struct {
	Mode string // memory | embedded | remote
	Path string // embedded: filesystem root for the database
	URL  string // remote: base URL of the vector database service
}

// NewVectorStore constructs the backend selected by mode. The collection is
// created if absent and verified against dimension if it already exists.
func NewVectorStore(ctx context.Context, mode StorageMode, collection string, dimension int) (VectorStore, error) {
	switch mode.Mode {
	case ModeMemory, "":
		return NewMemoryStore(dimension), nil
	case ModeEmbedded:
		return NewSQLiteStore(ctx, mode.Path, collection, dimension)
	case ModeRemote:
		return NewQdrantStore(ctx, mode.URL, collection, dimension)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", mode.Mode)
	}
}

// sourceMatches reports whether candidate equals prefix or sits beneath it
// as a path ("dirA" matches "dirA/x.md" but not "dirA2"). An empty prefix
// matches only an empty source, never everything under "/".
func sourceMatches(candidate, prefix string) bool {
	if candidate == prefix {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(candidate, prefix+"/")
}
