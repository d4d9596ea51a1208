package rag

import "fmt"

// Chunk splits text into overlapping windows of at most size bytes. Each
// window starts size-overlap bytes after the previous one; the final window
// may be shorter and ends exactly at len(text). Text no longer than size is
// returned as a single chunk.
//
// The split is pure and deterministic: chunk i is the i-th window in
// left-to-right scan order.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, size)
	}

	if len(text) <= size {
		return []string{text}, nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks, nil
}
