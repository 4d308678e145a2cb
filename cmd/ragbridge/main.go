// Command ragbridge is the entry point for the RAG orchestration service.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// query and ingestion pipelines.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/ragbridge/cmd/ragbridge/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
