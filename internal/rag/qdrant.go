package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// qdrantNamespace salts the deterministic point IDs so two collections fed
// from the same document IDs never collide.
var qdrantNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("knodex/qdrant"))

// QdrantStore is the remote backend: every operation is one request/response
// exchange with a Qdrant server over its REST API. Network failures surface
// as ErrBackendUnavailable and are never retried here.
//
// Qdrant point IDs must be UUIDs or integers, so the document ID is mapped
// to a deterministic UUIDv5 and kept verbatim in the payload.
type QdrantStore struct {
	baseURL    string
	collection string
	dimension  int
	client     *http.Client
}

// NewQdrantStore connects to the server at url and verifies or creates the
// named collection with cosine distance.
func NewQdrantStore(ctx context.Context, url, collection string, dimension int) (*QdrantStore, error) {
	s := &QdrantStore{
		baseURL:    strings.TrimSuffix(url, "/"),
		collection: collection,
		dimension:  dimension,
		client:     &http.Client{},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	status, resp, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: create collection %q: %s", ErrBackendUnavailable, s.collection, resp)
	}
	return nil
}

// Add upserts the document as a single point with wait=true so a cancelled
// call never leaves a half-written point visible.
func (s *QdrantStore) Add(ctx context.Context, doc Document) error {
	if len(doc.Embedding) != s.dimension {
		return errDimension(doc.ID, len(doc.Embedding), s.dimension)
	}

	body := map[string]any{
		"points": []map[string]any{
			{
				"id":     pointID(doc.ID),
				"vector": doc.Embedding,
				"payload": map[string]any{
					"doc_id":   doc.ID,
					"content":  doc.Content,
					"metadata": doc.Metadata,
					"source":   doc.Source(),
				},
			},
		},
	}
	status, resp, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant upsert %q: %s", doc.ID, resp)
	}
	return nil
}

// Search delegates ranking to the server and reconstructs documents from the
// returned payloads and vectors.
func (s *QdrantStore) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	body := map[string]any{
		"vector":       query,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  true,
	}
	status, resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant search: %s", resp)
	}

	var parsed struct {
		Result []struct {
			Score   float32       `json:"score"`
			Vector  []float32     `json:"vector"`
			Payload qdrantPayload `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("qdrant search response: %w", err)
	}

	results := make([]SearchResult, len(parsed.Result))
	for i, r := range parsed.Result {
		results[i] = SearchResult{
			Document: r.Payload.document(r.Vector),
			Score:    r.Score,
		}
	}
	return results, nil
}

// Count asks the server for an exact point count.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	status, resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count",
		map[string]any{"exact": true})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("qdrant count: %s", resp)
	}

	var parsed struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return 0, fmt.Errorf("qdrant count response: %w", err)
	}
	return parsed.Result.Count, nil
}

// Clear deletes every point via an empty filter.
func (s *QdrantStore) Clear(ctx context.Context) error {
	status, resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true",
		map[string]any{"filter": map[string]any{}})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant clear: %s", resp)
	}
	return nil
}

// IndexedSources scrolls the full collection and collects distinct sources.
func (s *QdrantStore) IndexedSources(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var sources []string
	err := s.scroll(ctx, func(id string, p qdrantPayload) {
		if p.Source == "" {
			return
		}
		if _, ok := seen[p.Source]; ok {
			return
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// RemoveBySource scrolls for matching points and deletes them by ID. Prefix
// matching happens client-side because Qdrant has no path-nesting filter.
func (s *QdrantStore) RemoveBySource(ctx context.Context, source string) (int, error) {
	var ids []string
	err := s.scroll(ctx, func(id string, p qdrantPayload) {
		if sourceMatches(p.Source, source) {
			ids = append(ids, id)
		}
	})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	status, resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true",
		map[string]any{"points": ids})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("qdrant delete by source %q: %s", source, resp)
	}
	return len(ids), nil
}

// Close releases idle connections.
func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// scroll pages through the whole collection invoking fn per point.
func (s *QdrantStore) scroll(ctx context.Context, fn func(id string, p qdrantPayload)) error {
	var offset any
	for {
		body := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			body["offset"] = offset
		}

		status, resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/scroll", body)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("qdrant scroll: %s", resp)
		}

		var parsed struct {
			Result struct {
				Points []struct {
					ID      string        `json:"id"`
					Payload qdrantPayload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := json.Unmarshal(resp, &parsed); err != nil {
			return fmt.Errorf("qdrant scroll response: %w", err)
		}

		for _, p := range parsed.Result.Points {
			fn(p.ID, p.Payload)
		}
		if parsed.Result.NextPageOffset == nil {
			return nil
		}
		offset = parsed.Result.NextPageOffset
	}
}

// do issues one JSON request and returns the status and raw body. Transport
// errors wrap ErrBackendUnavailable.
func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrBackendUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}

type qdrantPayload struct {
	DocID    string            `json:"doc_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Source   string            `json:"source"`
}

func (p qdrantPayload) document(vector []float32) Document {
	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return Document{ID: p.DocID, Content: p.Content, Embedding: vector, Metadata: meta}
}

// pointID maps a document ID to the deterministic UUID Qdrant requires.
func pointID(docID string) string {
	return uuid.NewSHA1(qdrantNamespace, []byte(docID)).String()
}
