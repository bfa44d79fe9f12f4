package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/andreasabel/xrefcheck/internal/cmd"
)

// Exit codes: 0 when all references are valid, 1 when broken references or
// scan errors were found, 2 for configuration and environment errors.
func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrChecksFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
