// Package commands defines all Cobra CLI commands for the ragbridge binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/ragbridge/internal/audit"
	"github.com/54b3r/ragbridge/internal/config"
	"github.com/54b3r/ragbridge/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragbridge",
		Short: "ragbridge — retrieval-augmented generation over your own data stores",
		Long: `ragbridge connects LLM providers, vector stores, and data sources into
two pipelines: query (embed a question, retrieve similar documents, generate
an answer) and ingest (extract records from a database, embed them, and load
them into a vector store).

All provider credentials are supplied per request or per invocation — the
process holds no provider state. Server settings come from env vars or a
YAML config file (~/.ragbridge/config.yaml).
See 'ragbridge --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragbridge/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewChatCmd(),
		NewIngestCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
