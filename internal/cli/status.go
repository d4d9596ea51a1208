package cli

import (
	"fmt"
	"os"

	"github.com/knodex/knodex/internal/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ knodex version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 knodex status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (using defaults)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("Config:  ? Unable to load:", err)
			return
		}

		fmt.Printf("Storage: %s", cfg.Storage.Mode)
		switch cfg.Storage.Mode {
		case "embedded":
			fmt.Printf(" (%s)", config.ExpandPath(cfg.Storage.Path))
		case "remote":
			fmt.Printf(" (%s)", cfg.Storage.URL)
		}
		fmt.Printf(", collection %q, dimension %d\n", cfg.Storage.Collection, cfg.Storage.Dimension)

		fmt.Printf("Embedder: %s", cfg.Embedding.Provider)
		if cfg.Embedding.Model != "" {
			fmt.Printf(" (%s)", cfg.Embedding.Model)
		}
		fmt.Println()
		if cfg.Embedding.Provider == "openai" {
			if cfg.Embedding.APIKey != "" {
				fmt.Println("API Key: ✓ Found")
			} else {
				fmt.Println("API Key: ✗ Not found")
			}
		}
		fmt.Printf("Chunking: size %d, overlap %d, top-k %d\n",
			cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, cfg.Retrieval.TopK)
	},
}
