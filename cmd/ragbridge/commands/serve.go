package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/server"
	"github.com/54b3r/ragbridge/internal/vectorstore"
)

// NewServeCmd constructs the `ragbridge serve` command, which starts the
// HTTP server exposing the query and ingestion pipelines.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragbridge HTTP server",
		Long: `Start the ragbridge HTTP server.

The server exposes POST /api/chat and POST /api/ingest plus health,
readiness, and Prometheus metrics endpoints. Provider credentials arrive
in each request body; the server itself holds none.

Examples:
  ragbridge serve
  ragbridge serve --port 9090
  RAGBRIDGE_API_KEY=secret ragbridge serve --host 0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("SERVER_PORT", port)
			}

			history, closeHistory := openHistory(log)
			defer closeHistory()

			pingers, closePingers := buildPingers(log)
			defer closePingers()

			cfg := &server.Config{
				Host:                host,
				Port:                port,
				Logger:              log,
				Pingers:             pingers,
				RateLimit:           getEnvFloat("RATE_LIMIT", 0),
				RateBurst:           getEnvInt("RATE_BURST", 0),
				APIKey:              os.Getenv("RAGBRIDGE_API_KEY"),
				PineconeEnvironment: getEnvOrDefault("PINECONE_ENVIRONMENT", vectorstore.DefaultPineconeEnvironment),
			}
			if history != nil {
				cfg.History = history
			}

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("host", host),
				slog.Int("port", port),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
