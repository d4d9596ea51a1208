package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/knodex/knodex/internal/provider"
)

// contextHeader is the fixed prefix of the rendered context block. Its shape
// is a presentation contract consumed by downstream prompt assembly.
const contextHeader = "\n\nRelevant context from your knowledge base:\n"

// indexableExtensions is the allow-list for directory ingestion. Matching is
// exact and case-sensitive.
var indexableExtensions = map[string]struct{}{
	".rs": {}, ".go": {}, ".py": {}, ".js": {}, ".ts": {},
	".tsx": {}, ".jsx": {}, ".md": {}, ".txt": {},
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Embedder     provider.Embedder
	Store        VectorStore
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	IgnoreGlobs  []string // doublestar patterns matched against slash paths
	MaxFileSize  int64    // skip files larger than this; 0 disables the cap
}

// Manager orchestrates ingestion and query-time retrieval. It is the only
// component client code calls directly.
type Manager struct {
	embedder     provider.Embedder
	store        VectorStore
	chunkSize    int
	chunkOverlap int
	topK         int
	ignoreGlobs  []string
	maxFileSize  int64
}

// NewManager validates the chunking parameters before any I/O can happen.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, opts.ChunkSize)
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, opts.ChunkOverlap, opts.ChunkSize)
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Manager{
		embedder:     opts.Embedder,
		store:        opts.Store,
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		topK:         opts.TopK,
		ignoreGlobs:  opts.IgnoreGlobs,
		maxFileSize:  opts.MaxFileSize,
	}, nil
}

// AddKnowledge embeds content as one document and stores it. The ID is a
// deterministic hash of source and content, so re-adding identical content
// overwrites instead of duplicating and concurrent calls never race on a
// count snapshot.
func (m *Manager) AddKnowledge(ctx context.Context, content, source string) error {
	resp, err := m.embedder.Embed(ctx, &provider.EmbeddingRequest{Input: content})
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}

	doc := NewDocument(documentID(source, content), content, resp.Vector).
		WithMetadata(MetaSource, source)
	if err := m.store.Add(ctx, doc); err != nil {
		return fmt.Errorf("store content from %q: %w", source, err)
	}
	return nil
}

// IndexDirectory walks path, chunks every indexable file, and stores one
// embedded document per chunk. It returns the number of files (not chunks)
// processed. Unreadable entries are skipped; the first embed or store
// failure aborts the walk, leaving already-stored chunks in place so a
// re-invocation can resume.
func (m *Manager) IndexDirectory(ctx context.Context, path string) (int, error) {
	files, err := m.collectFiles(path)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, file := range files {
		ok, err := m.indexFile(ctx, file)
		if err != nil {
			return indexed, fmt.Errorf("index %s: %w", file, err)
		}
		if ok {
			indexed++
			slog.Debug("Indexed file", "path", file)
		}
	}
	return indexed, nil
}

// indexFile splits one file and stores a document per chunk. Chunk index i
// always refers to the i-th window of this file. Unreadable files are
// skipped (false, nil), not errors.
func (m *Manager) indexFile(ctx context.Context, path string) (bool, error) {
	if m.maxFileSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > m.maxFileSize {
			slog.Warn("Skipping oversize file", "path", path, "size", info.Size(), "max", m.maxFileSize)
			return false, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Skipping unreadable file", "path", path, "error", err)
		return false, nil
	}

	chunks, err := Chunk(string(data), m.chunkSize, m.chunkOverlap)
	if err != nil {
		return false, err
	}

	for i, chunk := range chunks {
		resp, err := m.embedder.Embed(ctx, &provider.EmbeddingRequest{Input: chunk})
		if err != nil {
			return false, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		doc := NewDocument(fmt.Sprintf("%s_chunk_%d", path, i), chunk, resp.Vector).
			WithMetadata(MetaSource, path).
			WithMetadata(MetaChunk, strconv.Itoa(i))
		if err := m.store.Add(ctx, doc); err != nil {
			return false, fmt.Errorf("store chunk %d: %w", i, err)
		}
	}
	return true, nil
}

// ReindexFile refreshes a single file: stale chunks for its path are removed
// first so a shrinking file cannot leave orphaned high-index chunks behind.
// Non-indexable paths are ignored.
func (m *Manager) ReindexFile(ctx context.Context, path string) error {
	if !IsIndexable(path) {
		return nil
	}
	if _, err := m.store.RemoveBySource(ctx, path); err != nil {
		return fmt.Errorf("remove stale chunks for %s: %w", path, err)
	}
	if _, err := m.indexFile(ctx, path); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	return nil
}

// collectFiles gathers indexable files under root with an explicit work
// list, in deterministic sorted order. Unreadable directories are skipped;
// an unreadable root is an error.
func (m *Manager) collectFiles(root string) ([]string, error) {
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}

	var files []string
	pending := []string{root}
	for len(pending) > 0 {
		dir := pending[0]
		pending = pending[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Skipping unreadable directory", "path", dir, "error", err)
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			p := filepath.Join(dir, entry.Name())
			if m.ignored(p) {
				continue
			}
			if entry.IsDir() {
				pending = append(pending, p)
				continue
			}
			if IsIndexable(p) {
				files = append(files, p)
			}
		}
	}
	return files, nil
}

// ignored reports whether path matches any configured ignore glob.
func (m *Manager) ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range m.ignoreGlobs {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

// RetrieveContext embeds query, searches the store, and renders the ranked
// results as a numbered context block. An empty store or an empty result set
// yields "" — no context available is an expected outcome, not an error.
func (m *Manager) RetrieveContext(ctx context.Context, query string) (string, error) {
	count, err := m.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count knowledge base: %w", err)
	}
	if count == 0 {
		return "", nil
	}

	resp, err := m.embedder.Embed(ctx, &provider.EmbeddingRequest{Input: query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := m.store.Search(ctx, resp.Vector, m.topK)
	if err != nil {
		return "", fmt.Errorf("search knowledge base: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return FormatContext(results), nil
}

// Retrieve returns the raw ranked results for query without rendering.
func (m *Manager) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := m.embedder.Embed(ctx, &provider.EmbeddingRequest{Input: query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := m.store.Search(ctx, resp.Vector, m.topK)
	if err != nil {
		return nil, fmt.Errorf("search knowledge base: %w", err)
	}
	return results, nil
}

// Count returns the total number of documents in the knowledge base.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// Clear removes all documents from the knowledge base.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// IndexedSources lists the distinct sources that have been ingested.
func (m *Manager) IndexedSources(ctx context.Context) ([]string, error) {
	return m.store.IndexedSources(ctx)
}

// Forget removes every document whose source equals or nests under source.
func (m *Manager) Forget(ctx context.Context, source string) (int, error) {
	return m.store.RemoveBySource(ctx, source)
}

// FormatContext renders results as the fixed header followed by numbered
// entries in ranked order.
func FormatContext(results []SearchResult) string {
	var b strings.Builder
	b.WriteString(contextHeader)
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, r.Document.Content)
	}
	return b.String()
}

// IsIndexable reports whether path has an allow-listed extension.
func IsIndexable(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	_, ok := indexableExtensions[ext]
	return ok
}

// documentID derives a stable ID from source and content.
func documentID(source, content string) string {
	h := sha256.Sum256([]byte(source + ":" + content))
	return fmt.Sprintf("%x", h[:8])
}
