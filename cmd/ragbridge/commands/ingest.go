package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragbridge/internal/embedder"
	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/pipeline"
	"github.com/54b3r/ragbridge/internal/rag"
	"github.com/54b3r/ragbridge/internal/source"
	"github.com/54b3r/ragbridge/internal/vectorstore"
)

// NewIngestCmd constructs the `ragbridge ingest` command, which extracts
// records from a data source, embeds them, and loads them into a vector store.
func NewIngestCmd() *cobra.Command {
	var (
		sourceType     string
		connectionURI  string
		table          string
		filter         string
		limit          int
		vectorDBType   string
		vectorDBURL    string
		vectorDBAPIKey string
		collection     string
		openAIAPIKey   string
		embeddingModel string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract records from a data source and load them into a vector store",
		Long: `Run the ingestion pipeline: extract up to --limit records from the
configured data source, embed each record, and upsert the vectors into the
target collection. The collection is created if it does not exist, sized to
the embedding model's dimensionality.

Completed runs are recorded in the local history database
(~/.ragbridge/history.db unless RAGBRIDGE_HISTORY_DB overrides it).

Examples:
  ragbridge ingest --source mongodb --uri mongodb://localhost:27017/app \
    --table articles --collection articles_vectors \
    --vector-db qdrant --vector-db-url http://localhost:6334
  ragbridge ingest --source postgresql --uri postgres://user:pass@db/app \
    --table orders --filter "status = 'open'" --limit 100 \
    --collection orders_vectors --vector-db pinecone`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if connectionURI == "" {
				return fmt.Errorf("ingest: --uri is required")
			}
			if table == "" {
				return fmt.Errorf("ingest: --table is required")
			}
			if collection == "" {
				return fmt.Errorf("ingest: a collection is required (--collection or VECTOR_DB_COLLECTION)")
			}
			if openAIAPIKey == "" {
				return fmt.Errorf("ingest: an OpenAI API key is required (--openai-api-key or OPENAI_API_KEY)")
			}
			if limit < 0 {
				return fmt.Errorf("ingest: --limit must not be negative")
			}

			extractor, err := source.NewExtractor(source.ExtractParams{
				Provider:      sourceType,
				ConnectionURI: connectionURI,
				Collection:    table,
				Filter:        filter,
				Limit:         limit,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.New("openai", embedder.Credentials{
				APIKey: openAIAPIKey,
				Model:  embeddingModel,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			upserter, err := vectorstore.NewUpserter(vectorstore.UpsertParams{
				Provider:    vectorDBType,
				APIKey:      vectorDBAPIKey,
				Collection:  collection,
				Endpoint:    vectorDBURL,
				Environment: getEnvOrDefault("PINECONE_ENVIRONMENT", vectorstore.DefaultPineconeEnvironment),
				Dimensions:  embedder.ModelDimensions(embeddingModel),
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			p, err := pipeline.NewIngestPipeline(extractor, emb, upserter)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			result, err := p.Run(ctx)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			recordIngestRun(ctx, log, sourceType, vectorDBType, collection, result)

			fmt.Println(result.Message)
			if result.Success {
				fmt.Printf("documents: %d, vectors: %d\n",
					result.DocumentsProcessed, result.VectorsCreated)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceType, "source", "mongodb", "Data source backend: mongodb, postgresql, mysql")
	cmd.Flags().StringVar(&connectionURI, "uri", "", "Data source connection URI")
	cmd.Flags().StringVar(&table, "table", "", "Collection (mongodb) or table (relational) to read from")
	cmd.Flags().StringVar(&filter, "filter", "", "Provider-native filter: JSON object for mongodb, SQL predicate for relational")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of records to extract")
	cmd.Flags().StringVar(&vectorDBType, "vector-db", getEnvOrDefault("VECTOR_DB_TYPE", "qdrant"), "Vector store backend: pinecone, qdrant, weaviate")
	cmd.Flags().StringVar(&vectorDBURL, "vector-db-url", getEnvOrDefault("VECTOR_DB_URL", ""), "Vector store endpoint URL")
	cmd.Flags().StringVar(&vectorDBAPIKey, "vector-db-api-key", getEnvOrDefault("VECTOR_DB_API_KEY", ""), "Vector store API key")
	cmd.Flags().StringVar(&collection, "collection", getEnvOrDefault("VECTOR_DB_COLLECTION", ""), "Vector store collection to write into")
	cmd.Flags().StringVar(&openAIAPIKey, "openai-api-key", getEnvOrDefault("OPENAI_API_KEY", ""), "OpenAI API key for embeddings")
	cmd.Flags().StringVar(&embeddingModel, "embedding-model", "", "Embedding model (default: text-embedding-ada-002)")

	return cmd
}

// recordIngestRun appends the run to the local history database. History
// failures are logged and never fail the command.
func recordIngestRun(ctx context.Context, log *slog.Logger, sourceType, vectorDBType, collection string, result *pipeline.IngestResult) {
	history, closeHistory := openHistory(log)
	if history == nil {
		return
	}
	defer closeHistory()

	outcome := "ok"
	if !result.Success {
		outcome = "empty"
	}
	run := rag.IngestRun{
		Source:      sourceType,
		VectorStore: vectorDBType,
		Collection:  collection,
		Documents:   result.DocumentsProcessed,
		Vectors:     result.VectorsCreated,
		Outcome:     outcome,
		CreatedAt:   time.Now(),
	}
	if err := history.Append(ctx, run); err != nil {
		log.Warn("failed to record ingestion run", slog.Any("error", err))
	}
}
