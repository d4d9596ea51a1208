// Package cli implements the knodex command line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/knodex/knodex/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		" _                    _\n" +
		"| | ___ __   ___   __| | _____  __\n" +
		"| |/ / '_ \\ / _ \\ / _` |/ _ \\ \\/ /\n" +
		"|   <| | | | (_) | (_| |  __/>  <\n" +
		"|_|\\_\\_| |_|\\___/ \\__,_|\\___/_/\\_\\\n"
)

var rootCmd = &cobra.Command{
	Use:   "knodex",
	Short: "knodex - local knowledge base for retrieval-augmented generation",
	Long: color.CyanString(logo) +
		"\nIndexes text into a searchable vector knowledge base and answers similarity queries against it.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(watchCmd)
}

func printHeader(title string) {
	color.New(color.FgCyan, color.Bold).Println(title)
}
