package cli

import (
	"fmt"
	"strings"

	"github.com/knodex/knodex/internal/config"
	"github.com/knodex/knodex/internal/provider"
)

// resolveEmbedder returns the embedder selected by configuration, plus a
// short label for status output.
func resolveEmbedder(cfg *config.Config) (provider.Embedder, string, error) {
	providerID := strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider))

	switch providerID {
	case "openai":
		if strings.TrimSpace(cfg.Embedding.APIKey) == "" {
			return nil, "", fmt.Errorf("embedding provider openai requires an API key (KNODEX_EMBEDDING_API_KEY or config.json)")
		}
		emb := provider.NewOpenAIProvider(cfg.Embedding.APIKey, cfg.Embedding.APIBase)
		return provider.WithDefaultModel(emb, cfg.Embedding.Model), "openai", nil
	case "ollama", "":
		emb, err := provider.NewOllamaProvider(cfg.Embedding.OllamaHost)
		if err != nil {
			return nil, "", err
		}
		return provider.WithDefaultModel(emb, cfg.Embedding.Model), "ollama", nil
	default:
		return nil, "", fmt.Errorf("unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}
