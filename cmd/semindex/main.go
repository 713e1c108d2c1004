// Package main provides the entry point for the semindex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/semindex/semindex/cmd/semindex/cmd"
	"github.com/semindex/semindex/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
