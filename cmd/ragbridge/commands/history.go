package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragbridge/internal/logging"
)

// NewHistoryCmd constructs the `ragbridge history` command, which lists the
// most recent ingestion runs recorded by `ragbridge ingest` and the server.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent ingestion runs",
		Long: `List the most recent ingestion runs, newest first, from the local
history store (~/.ragbridge/history.db, overridable via RAGBRIDGE_HISTORY_DB).

Examples:
  ragbridge history
  ragbridge history --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if limit < 1 {
				return fmt.Errorf("history: --limit must be positive, got %d", limit)
			}

			hs, closeHistory := openHistory(log)
			defer closeHistory()
			if hs == nil {
				return fmt.Errorf("history: no history store available")
			}

			runs, err := hs.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("No ingestion runs recorded yet.")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("%s  %-6s  %s -> %s/%s  %d docs, %d vectors\n",
					run.CreatedAt.UTC().Format(time.RFC3339),
					run.Outcome,
					run.Source,
					run.VectorStore,
					run.Collection,
					run.Documents,
					run.Vectors,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}
