// Package config provides configuration types and loading for knodex.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Storage, Embedding, Retrieval, Indexing, Watch.
type Config struct {
	Storage   StorageConfig   `json:"storage"`
	Embedding EmbeddingConfig `json:"embedding"`
	Retrieval RetrievalConfig `json:"retrieval"`
	Indexing  IndexingConfig  `json:"indexing"`
	Watch     WatchConfig     `json:"watch"`
}

// ---------------------------------------------------------------------------
// Storage – vector store backend selection
// ---------------------------------------------------------------------------

// StorageConfig selects and addresses the vector store backend. Mode is one
// of memory, embedded, remote; it is fixed for the lifetime of a store.
type StorageConfig struct {
	Mode       string `json:"mode" envconfig:"MODE"`
	Path       string `json:"path" envconfig:"PATH"`
	URL        string `json:"url" envconfig:"URL"`
	Collection string `json:"collection" envconfig:"COLLECTION"`
	Dimension  int    `json:"dimension" envconfig:"DIMENSION"`
}

// ---------------------------------------------------------------------------
// Embedding – embedding provider
// ---------------------------------------------------------------------------

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `json:"provider" envconfig:"PROVIDER"` // openai | ollama
	Model      string `json:"model" envconfig:"MODEL"`
	APIKey     string `json:"apiKey" envconfig:"API_KEY"`
	APIBase    string `json:"apiBase" envconfig:"API_BASE"`
	OllamaHost string `json:"ollamaHost" envconfig:"OLLAMA_HOST"`
}

// ---------------------------------------------------------------------------
// Retrieval – chunking and ranking
// ---------------------------------------------------------------------------

// RetrievalConfig groups chunking and ranking parameters.
type RetrievalConfig struct {
	ChunkSize    int `json:"chunkSize" envconfig:"CHUNK_SIZE"`
	ChunkOverlap int `json:"chunkOverlap" envconfig:"CHUNK_OVERLAP"`
	TopK         int `json:"topK" envconfig:"TOP_K"`
}

// ---------------------------------------------------------------------------
// Indexing – directory ingestion
// ---------------------------------------------------------------------------

// IndexingConfig tunes directory ingestion.
type IndexingConfig struct {
	// IgnoreGlobs are doublestar patterns matched against slash paths;
	// matching files and directories are never indexed.
	IgnoreGlobs []string `json:"ignoreGlobs"`

	// MaxFileSizeBytes caps the size of files eligible for indexing;
	// larger files are skipped. 0 disables the cap.
	MaxFileSizeBytes int64 `json:"maxFileSizeBytes" envconfig:"MAX_FILE_SIZE_BYTES"`
}

// ---------------------------------------------------------------------------
// Watch – continuous re-indexing
// ---------------------------------------------------------------------------

// WatchConfig tunes the filesystem watcher.
type WatchConfig struct {
	DebounceSeconds int `json:"debounceSeconds" envconfig:"DEBOUNCE_SECONDS"`
}

// Debounce returns the configured settle time.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceSeconds) * time.Second
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Mode:       "embedded",
			Path:       "~/.knodex/store",
			Collection: "knowledge",
			Dimension:  768,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		Retrieval: RetrievalConfig{
			ChunkSize:    512,
			ChunkOverlap: 64,
			TopK:         5,
		},
		Indexing: IndexingConfig{
			IgnoreGlobs: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/target/**",
			},
			MaxFileSizeBytes: 1 << 20, // 1 MiB
		},
		Watch: WatchConfig{DebounceSeconds: 2},
	}
}
