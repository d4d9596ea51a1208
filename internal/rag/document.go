// Package rag implements the retrieval engine: text chunking, the document
// model, the vector store contract with its backends, and the manager that
// ties chunking, embedding, storage, and retrieval together.
package rag

// Well-known metadata keys.
const (
	MetaSource = "source"
	MetaChunk  = "chunk"
)

// Document is one indexed unit: a whole snippet or a single chunk of a file.
// Documents are never mutated after Add; an update is an overwrite by ID.
type Document struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}

// NewDocument creates a document with an empty metadata map.
func NewDocument(id, content string, embedding []float32) Document {
	return Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  map[string]string{},
	}
}

// WithMetadata sets a metadata key and returns the document for chaining.
func (d Document) WithMetadata(key, value string) Document {
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	d.Metadata[key] = value
	return d
}

// Source returns the origin path or label this document was ingested from.
func (d Document) Source() string {
	return d.Metadata[MetaSource]
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}
