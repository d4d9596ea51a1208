// Package provider implements embedding provider interfaces and clients.
package provider

import (
	"context"
	"errors"
)

// Embedder maps a text string to a dense float vector.
type Embedder interface {
	Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)
}

// Embedding boundary error kinds. Implementations wrap these with transport
// context; the retrieval core surfaces exactly one of them as the terminal
// error and never retries internally.
var (
	// ErrEmbeddingUnavailable reports an unreachable embedding service.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmptyEmbedding reports a service that returned zero vectors for
	// non-empty input.
	ErrEmptyEmbedding = errors.New("no embeddings returned")
)

// EmbeddingRequest contains parameters for an embedding request.
type EmbeddingRequest struct {
	Input string
	Model string // empty selects the provider default
}

// EmbeddingResponse contains the embedding vector.
type EmbeddingResponse struct {
	Vector []float32
	Usage  Usage
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// WithDefaultModel wraps inner so requests without an explicit model use
// model instead of the provider's built-in default.
func WithDefaultModel(inner Embedder, model string) Embedder {
	if inner == nil || model == "" {
		return inner
	}
	return &defaultModelEmbedder{inner: inner, model: model}
}

type defaultModelEmbedder struct {
	inner Embedder
	model string
}

func (d *defaultModelEmbedder) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	if req == nil {
		req = &EmbeddingRequest{}
	}
	clone := *req
	if clone.Model == "" {
		clone.Model = d.model
	}
	return d.inner.Embed(ctx, &clone)
}
