package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIModel = "text-embedding-3-small"

// OpenAIProvider talks to any OpenAI-compatible /embeddings endpoint
// (OpenAI, OpenRouter, LM Studio, vLLM).
type OpenAIProvider struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider. apiBase defaults to the OpenAI API.
func NewOpenAIProvider(apiKey, apiBase string) *OpenAIProvider {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Embed requests one embedding vector for the input text.
func (p *OpenAIProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	body := map[string]any{
		"model": model,
		"input": req.Input,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiBase+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEmbeddingUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
		Usage Usage `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: model %q", ErrEmptyEmbedding, model)
	}

	return &EmbeddingResponse{
		Vector: embResp.Data[0].Embedding,
		Usage:  embResp.Usage,
	}, nil
}
