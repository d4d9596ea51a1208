package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/knodex/knodex/internal/config"
	"github.com/spf13/cobra"
)

var (
	addSource  string
	addTimeout time.Duration
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a single text snippet to the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addSource, "source", "user", "Source label attached to the snippet")
	addCmd.Flags().DurationVar(&addTimeout, "timeout", 2*time.Minute, "Abort after this duration")
}

func runAdd(cmd *cobra.Command, args []string) error {
	printHeader("📝 knodex add")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), addTimeout)
	defer cancel()

	mgr, store, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := mgr.AddKnowledge(ctx, args[0], addSource); err != nil {
		return err
	}

	count, _ := mgr.Count(ctx)
	fmt.Printf("✓ Added snippet from %q (%d documents in knowledge base)\n", addSource, count)
	return nil
}
