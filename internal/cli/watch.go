package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/knodex/knodex/internal/config"
	"github.com/knodex/knodex/internal/rag"
	"github.com/spf13/cobra"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Index a directory and keep it indexed as files change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "Skip the initial full index pass")
}

func runWatch(cmd *cobra.Command, args []string) error {
	printHeader("👀 knodex watch")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr, store, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !watchSkipInitial {
		files, err := mgr.IndexDirectory(ctx, args[0])
		if err != nil {
			return fmt.Errorf("initial index: %w", err)
		}
		fmt.Printf("✓ Indexed %d files, watching %s for changes...\n", files, args[0])
	} else {
		fmt.Printf("Watching %s for changes...\n", args[0])
	}

	watcher, err := rag.NewWatcher(mgr, args[0], rag.WatcherConfig{Debounce: cfg.Watch.Debounce()})
	if err != nil {
		return err
	}

	go watcher.Run(ctx)
	<-ctx.Done()
	watcher.Stop()

	fmt.Println("\nStopped.")
	return nil
}
