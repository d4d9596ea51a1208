package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	// Same vector → 1.0
	sim := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
	if math.Abs(float64(sim)-1.0) > 1e-6 {
		t.Errorf("expected ~1.0 for identical vectors, got %f", sim)
	}

	// Orthogonal → 0.0
	sim = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(float64(sim)) > 1e-6 {
		t.Errorf("expected ~0.0 for orthogonal vectors, got %f", sim)
	}

	// Opposite → -1.0
	sim = CosineSimilarity([]float32{1, 0, 0}, []float32{-1, 0, 0})
	if math.Abs(float64(sim)+1.0) > 1e-6 {
		t.Errorf("expected ~-1.0 for opposite vectors, got %f", sim)
	}

	// Mismatched lengths → 0
	if sim := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0}); sim != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %f", sim)
	}

	// Zero magnitude → 0
	if sim := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 0, 0}); sim != 0 {
		t.Errorf("expected 0 for zero-magnitude vector, got %f", sim)
	}

	// Empty → 0
	if sim := CosineSimilarity([]float32{}, []float32{}); sim != 0 {
		t.Errorf("expected 0 for empty vectors, got %f", sim)
	}
}

func TestMemoryStore_AddAndSearch(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	docs := []Document{
		NewDocument("a", "hello world", []float32{1, 0, 0}).WithMetadata(MetaSource, "greetings.md"),
		NewDocument("b", "goodbye world", []float32{0, 1, 0}).WithMetadata(MetaSource, "farewells.md"),
	}
	for _, d := range docs {
		if err := store.Add(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	results, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "a" || results[1].Document.ID != "b" {
		t.Errorf("wrong order: %q then %q", results[0].Document.ID, results[1].Document.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Error("expected first result to have higher score")
	}
}

func TestMemoryStore_SelfQueryScoresOne(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	e := []float32{0.3, 0.7, 0.2}
	if err := store.Add(ctx, NewDocument("self", "x", e)); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, e, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Document.ID != "self" {
		t.Fatalf("expected the document itself first, got %v", results)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Errorf("expected score ~1.0, got %f", results[0].Score)
	}
}

func TestMemoryStore_OverwriteByID(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	_ = store.Add(ctx, NewDocument("a", "original", []float32{1, 0, 0}))
	if err := store.Add(ctx, NewDocument("a", "updated", []float32{0, 1, 0})); err != nil {
		t.Fatal(err)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("expected count 1 after overwrite, got %d", n)
	}
	results, _ := store.Search(ctx, []float32{0, 1, 0}, 1)
	if results[0].Document.Content != "updated" {
		t.Errorf("expected updated content, got %q", results[0].Document.Content)
	}
}

func TestMemoryStore_StableTieBreak(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	// Same embedding → identical scores; insertion order must win.
	for _, id := range []string{"first", "second", "third"} {
		_ = store.Add(ctx, NewDocument(id, id, []float32{1, 1}))
	}

	for run := 0; run < 3; run++ {
		results, err := store.Search(ctx, []float32{1, 0}, 3)
		if err != nil {
			t.Fatal(err)
		}
		got := []string{results[0].Document.ID, results[1].Document.ID, results[2].Document.ID}
		want := []string{"first", "second", "third"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: tie order %v, want %v", run, got, want)
			}
		}
	}
}

func TestMemoryStore_TopKLimits(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = store.Add(ctx, NewDocument(fmt.Sprintf("d%d", i), "x", []float32{1, float32(i)}))
	}

	results, _ := store.Search(ctx, []float32{1, 0}, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatal("results not sorted by descending score")
		}
	}

	if results, _ := store.Search(ctx, []float32{1, 0}, 0); len(results) != 0 {
		t.Fatalf("topK=0 should return nothing, got %d", len(results))
	}
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	store := NewMemoryStore(3)
	err := store.Add(context.Background(), NewDocument("bad", "x", []float32{1, 0}))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMemoryStore_CountAndClear(t *testing.T) {
	store := NewMemoryStore(1)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		before, _ := store.Count(ctx)
		_ = store.Add(ctx, NewDocument(fmt.Sprintf("d%d", i), "x", []float32{1}))
		after, _ := store.Count(ctx)
		if after != before+1 {
			t.Fatalf("add %d: count went %d → %d", i, before, after)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("expected 0 after clear, got %d", n)
	}
	// Idempotent.
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStore_IndexedSources(t *testing.T) {
	store := NewMemoryStore(1)
	ctx := context.Background()

	_ = store.Add(ctx, NewDocument("1", "x", []float32{1}).WithMetadata(MetaSource, "docs/a.md"))
	_ = store.Add(ctx, NewDocument("2", "y", []float32{1}).WithMetadata(MetaSource, "docs/a.md"))
	_ = store.Add(ctx, NewDocument("3", "z", []float32{1}).WithMetadata(MetaSource, "docs/b.md"))

	sources, err := store.IndexedSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 || sources[0] != "docs/a.md" || sources[1] != "docs/b.md" {
		t.Fatalf("unexpected sources: %v", sources)
	}
}

func TestMemoryStore_RemoveBySourcePrefix(t *testing.T) {
	store := NewMemoryStore(1)
	ctx := context.Background()

	_ = store.Add(ctx, NewDocument("1", "x", []float32{1}).WithMetadata(MetaSource, "dirA"))
	_ = store.Add(ctx, NewDocument("2", "y", []float32{1}).WithMetadata(MetaSource, "dirA/file.md"))
	_ = store.Add(ctx, NewDocument("3", "z", []float32{1}).WithMetadata(MetaSource, "dirA/sub/deep.go"))
	_ = store.Add(ctx, NewDocument("4", "w", []float32{1}).WithMetadata(MetaSource, "dirA2/other.md"))

	removed, err := store.RemoveBySource(ctx, "dirA")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("expected 1 remaining, got %d", n)
	}
	sources, _ := store.IndexedSources(ctx)
	if len(sources) != 1 || sources[0] != "dirA2/other.md" {
		t.Fatalf("wrong survivor: %v", sources)
	}

	// No match is not an error.
	if removed, err := store.RemoveBySource(ctx, "missing"); err != nil || removed != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", removed, err)
	}
}

func TestMemoryStore_RemoveByEmptySource(t *testing.T) {
	store := NewMemoryStore(1)
	ctx := context.Background()

	_ = store.Add(ctx, NewDocument("1", "x", []float32{1}).WithMetadata(MetaSource, "/abs/a.md"))
	_ = store.Add(ctx, NewDocument("2", "y", []float32{1}).WithMetadata(MetaSource, "rel/b.md"))
	_ = store.Add(ctx, NewDocument("3", "z", []float32{1})) // no source

	removed, err := store.RemoveBySource(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("empty source must match only sourceless documents, removed %d", removed)
	}
	if n, _ := store.Count(ctx); n != 2 {
		t.Fatalf("expected 2 remaining, got %d", n)
	}
}

func TestMemoryStore_ConcurrentAddAndSearch(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(ctx, NewDocument(fmt.Sprintf("d%d", i), "x", []float32{1, float32(i)}))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Search(ctx, []float32{1, 0}, 5)
		}()
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 20 {
		t.Fatalf("lost documents under concurrency: count %d, want 20", n)
	}
}
