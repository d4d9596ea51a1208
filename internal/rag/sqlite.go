package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	source TEXT NOT NULL DEFAULT '',
	UNIQUE (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(collection, source);
`

// SQLiteStore is the embedded-local backend. Documents persist in a SQLite
// database under the configured path; embeddings are stored as little-endian
// float32 BLOBs and similarity is computed in Go, exactly like the reference
// engine. The monotonic seq column preserves insertion order for stable
// tie-breaking across restarts.
type SQLiteStore struct {
	db         *sql.DB
	collection string
	dimension  int
}

// NewSQLiteStore opens (or creates) the collection in a database rooted at
// path. An existing collection with a different dimension, or an unwritable
// path, fails with ErrBackendUnavailable.
func NewSQLiteStore(ctx context.Context, path, collection string, dimension int) (*SQLiteStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create storage dir %s: %v", ErrBackendUnavailable, path, err)
	}

	dbPath := filepath.Join(path, "knodex.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBackendUnavailable, dbPath, err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrBackendUnavailable, err)
	}

	var existing int
	err = db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, collection).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.ExecContext(ctx, `INSERT INTO collections (name, dimension) VALUES (?, ?)`, collection, dimension); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: register collection %q: %v", ErrBackendUnavailable, collection, err)
		}
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("%w: read collection %q: %v", ErrBackendUnavailable, collection, err)
	case existing != dimension:
		db.Close()
		return nil, fmt.Errorf("%w: collection %q has dimension %d, config expects %d",
			ErrBackendUnavailable, collection, existing, dimension)
	}

	return &SQLiteStore{db: db, collection: collection, dimension: dimension}, nil
}

// Add upserts doc by (collection, id). The seq of an existing row is kept so
// an overwrite does not change its position in tie-breaking.
func (s *SQLiteStore) Add(ctx context.Context, doc Document) error {
	if len(doc.Embedding) != s.dimension {
		return errDimension(doc.ID, len(doc.Embedding), s.dimension)
	}

	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %q: %w", doc.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, content, embedding, metadata, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			source = excluded.source
	`, s.collection, doc.ID, doc.Content, encodeFloat32s(doc.Embedding), string(meta), doc.Source())
	if err != nil {
		return fmt.Errorf("add document %q: %w", doc.ID, err)
	}
	return nil
}

// Search scans the collection in seq order, computes cosine similarity in Go
// and stable-sorts by descending score.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata
		FROM documents WHERE collection = ? ORDER BY seq
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var id, content, meta string
		var blob []byte
		if err := rows.Scan(&id, &content, &blob, &meta); err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}

		doc := Document{ID: id, Content: content, Embedding: decodeFloat32s(blob)}
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			doc.Metadata = map[string]string{}
		}

		results = append(results, SearchResult{
			Document: doc,
			Score:    CosineSimilarity(query, doc.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the document count of the collection.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, s.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Clear removes all documents of the collection.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// IndexedSources returns distinct non-empty sources in first-seen order.
func (s *SQLiteStore) IndexedSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source FROM documents
		WHERE collection = ? AND source != ''
		GROUP BY source ORDER BY MIN(seq)
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("indexed sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("indexed sources scan: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// RemoveBySource deletes documents whose source equals source or nests under
// it as a path. An empty source matches only exactly, so it can never expand
// into a "/%" pattern that catches every absolute path.
func (s *SQLiteStore) RemoveBySource(ctx context.Context, source string) (int, error) {
	prefix := source
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	pattern := likeEscape(prefix) + "/%"
	if prefix == "" {
		pattern = "" // LIKE '' matches only the empty source, already covered
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = ? AND (source = ? OR source LIKE ? ESCAPE '\')
	`, s.collection, source, pattern)
	if err != nil {
		return 0, fmt.Errorf("remove by source %q: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove by source %q: %w", source, err)
	}
	return int(n), nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// likeEscape escapes LIKE metacharacters so sources containing % or _ match
// literally.
func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// encodeFloat32s converts a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s converts little-endian bytes back to a float32 slice.
func decodeFloat32s(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
