package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestChunk_TextSmallerThanSize(t *testing.T) {
	chunks, err := Chunk("Hello", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "Hello" {
		t.Fatalf("expected [Hello], got %v", chunks)
	}
}

func TestChunk_ExactSize(t *testing.T) {
	chunks, err := Chunk("0123456789", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "0123456789" {
		t.Fatalf("expected one full chunk, got %v", chunks)
	}
}

func TestChunk_WithOverlap(t *testing.T) {
	chunks, err := Chunk("0123456789ABCDEF", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "0123456789" {
		t.Errorf("chunk 0: got %q", chunks[0])
	}
	if chunks[1] != "89ABCDEF" {
		t.Errorf("chunk 1: got %q", chunks[1])
	}
}

func TestChunk_CoversWholeText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 13) // 130 chars
	chunks, err := Chunk(text, 32, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(chunks[0], "abcdefghij") {
		t.Errorf("first chunk misaligned: %q", chunks[0])
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Errorf("last chunk %q does not end the text", last)
	}
	// Every chunk except the last is exactly the window size.
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) != 32 {
			t.Errorf("chunk %d has length %d, want 32", i, len(c))
		}
	}
}

func TestChunk_InvalidParameters(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 12},
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Chunk("some text", tc.size, tc.overlap); !errors.Is(err, ErrInvalidChunking) {
				t.Fatalf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("x y z ", 50)
	a, _ := Chunk(text, 20, 5)
	b, _ := Chunk(text, 20, 5)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}
