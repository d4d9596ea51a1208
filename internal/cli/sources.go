package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/knodex/knodex/internal/config"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources that have been indexed",
	RunE:  runSources,
}

var forgetCmd = &cobra.Command{
	Use:   "forget <source>",
	Short: "Remove all documents from a source (or everything under a directory)",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the knowledge base",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Skip the confirmation prompt")
}

func withStore(run func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return run(ctx)
}

func runSources(cmd *cobra.Command, args []string) error {
	printHeader("🗂  knodex sources")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context) error {
		mgr, store, err := openManager(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sources, err := mgr.IndexedSources(ctx)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("Knowledge base is empty.")
			return nil
		}
		for _, src := range sources {
			fmt.Println("  " + src)
		}
		count, _ := mgr.Count(ctx)
		fmt.Printf("%d sources, %d documents\n", len(sources), count)
		return nil
	})
}

func runForget(cmd *cobra.Command, args []string) error {
	printHeader("🗑  knodex forget")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context) error {
		mgr, store, err := openManager(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := mgr.Forget(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Removed %d documents from %q\n", removed, args[0])
		return nil
	})
}

func runClear(cmd *cobra.Command, args []string) error {
	printHeader("🗑  knodex clear")

	if !clearYes {
		fmt.Print("This removes every document. Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context) error {
		mgr, store, err := openManager(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := mgr.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Knowledge base cleared")
		return nil
	})
}
