package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

const defaultOllamaModel = "nomic-embed-text"

// OllamaProvider embeds text with a local Ollama server.
type OllamaProvider struct {
	client *api.Client
}

// NewOllamaProvider creates a provider against host, defaulting to the
// standard local Ollama address.
func NewOllamaProvider(host string) (*OllamaProvider, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}
	return &OllamaProvider{client: api.NewClient(base, http.DefaultClient)}, nil
}

// Embed requests one embedding vector for the input text.
func (p *OllamaProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := req.Model
	if model == "" {
		model = defaultOllamaModel
	}

	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model: model,
		Input: req.Input,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: model %q", ErrEmptyEmbedding, model)
	}

	return &EmbeddingResponse{Vector: resp.Embeddings[0]}, nil
}
