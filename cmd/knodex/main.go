// Package main is the entry point for the knodex CLI.
package main

import (
	"os"

	"github.com/knodex/knodex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
