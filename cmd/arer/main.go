// Package main is the entry point for the arer batch CLI.
//
// Usage:
//
//	arer [flags] <command> [args]
//
// Commands:
//
//	stats    - Accumulate code normalization statistics over a subset
//	test     - Reconstruct a subset and write per-branch audio
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/Utkarsh4430/ARER/cmd/arer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
