// Package main provides the entry point for the docsearch CLI.
package main

import (
	"os"

	"github.com/gcbaptista/doc-search-index/cmd/docsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
