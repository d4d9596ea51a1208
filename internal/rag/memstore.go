package rag

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is the in-process reference engine: an ordered slice of
// documents behind a read-write mutex, searched with an exact linear cosine
// scan. Any indexed backend must produce the same ranked output.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      []Document
	byID      map[string]int
	dimension int
}

// NewMemoryStore creates an empty in-memory store. dimension <= 0 disables
// the dimension check (the first Add pins it).
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{byID: map[string]int{}, dimension: dimension}
}

// Add stores doc, overwriting in place when the ID already exists so that
// insertion order is preserved for tie-breaking.
func (s *MemoryStore) Add(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension <= 0 {
		s.dimension = len(doc.Embedding)
	}
	if len(doc.Embedding) != s.dimension {
		return errDimension(doc.ID, len(doc.Embedding), s.dimension)
	}

	if i, ok := s.byID[doc.ID]; ok {
		s.docs[i] = doc
		return nil
	}
	s.byID[doc.ID] = len(s.docs)
	s.docs = append(s.docs, doc)
	return nil
}

// Search scans every document, sorts by descending score (stable, so equal
// scores keep insertion order) and truncates to topK.
func (s *MemoryStore) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, SearchResult{
			Document: doc,
			Score:    CosineSimilarity(query, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Clear removes all documents.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.byID = map[string]int{}
	return nil
}

// IndexedSources returns the distinct source metadata values in first-seen
// order.
func (s *MemoryStore) IndexedSources(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	var sources []string
	for _, doc := range s.docs {
		src := doc.Source()
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources, nil
}

// RemoveBySource removes documents whose source equals or nests under source.
func (s *MemoryStore) RemoveBySource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.docs[:0]
	removed := 0
	for _, doc := range s.docs {
		if sourceMatches(doc.Source(), source) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	s.docs = kept

	s.byID = make(map[string]int, len(s.docs))
	for i, doc := range s.docs {
		s.byID[doc.ID] = i
	}
	return removed, nil
}

// Close is a no-op for the in-memory engine.
func (s *MemoryStore) Close() error { return nil }

// CosineSimilarity computes (a·b)/(‖a‖·‖b‖). Mismatched lengths or a
// zero-magnitude vector yield 0.0 rather than an error so degenerate
// embeddings cannot abort a bulk search.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
