package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/knodex/knodex/internal/config"
	"github.com/spf13/cobra"
)

var indexTimeout time.Duration

var indexCmd = &cobra.Command{
	Use:   "index <directory>",
	Short: "Recursively index a directory into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().DurationVar(&indexTimeout, "timeout", 30*time.Minute, "Abort indexing after this duration")
}

func runIndex(cmd *cobra.Command, args []string) error {
	printHeader("📚 knodex index")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), indexTimeout)
	defer cancel()

	mgr, store, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	files, err := mgr.IndexDirectory(ctx, args[0])
	if err != nil {
		return fmt.Errorf("indexed %d files before failing: %w", files, err)
	}

	count, _ := mgr.Count(ctx)
	fmt.Printf("✓ Indexed %d files (%d documents in knowledge base)\n", files, count)
	return nil
}
