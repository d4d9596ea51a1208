package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/knodex/knodex/internal/config"
	"github.com/spf13/cobra"
)

var (
	queryJSON    bool
	queryTimeout time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the most relevant passages for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output machine-readable JSON")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 2*time.Minute, "Abort after this duration")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	mgr, store, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if queryJSON {
		results, err := mgr.Retrieve(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	block, err := mgr.RetrieveContext(ctx, args[0])
	if err != nil {
		return err
	}
	if block == "" {
		fmt.Println("No context available (knowledge base is empty or nothing matched).")
		return nil
	}
	fmt.Println(block)
	return nil
}
