package cli

import (
	"context"
	"fmt"

	"github.com/knodex/knodex/internal/config"
	"github.com/knodex/knodex/internal/rag"
)

// openManager wires config → embedder → store → manager. The returned store
// must be closed by the caller.
func openManager(ctx context.Context, cfg *config.Config) (*rag.Manager, rag.VectorStore, error) {
	embedder, label, err := resolveEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := rag.NewVectorStore(ctx, rag.StorageMode{
		Mode: cfg.Storage.Mode,
		Path: config.ExpandPath(cfg.Storage.Path),
		URL:  cfg.Storage.URL,
	}, cfg.Storage.Collection, cfg.Storage.Dimension)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Storage.Mode, err)
	}

	mgr, err := rag.NewManager(rag.ManagerOptions{
		Embedder:     embedder,
		Store:        store,
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		TopK:         cfg.Retrieval.TopK,
		IgnoreGlobs:  cfg.Indexing.IgnoreGlobs,
		MaxFileSize:  cfg.Indexing.MaxFileSizeBytes,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	fmt.Printf("Store: %s  Embedder: %s\n", cfg.Storage.Mode, label)
	return mgr, store, nil
}
