package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragbridge/internal/embedder"
	"github.com/54b3r/ragbridge/internal/generator"
	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/pipeline"
	"github.com/54b3r/ragbridge/internal/vectorstore"
)

// NewChatCmd constructs the `ragbridge chat` command, which runs a single
// query through the full pipeline and prints the answer with its sources.
func NewChatCmd() *cobra.Command {
	var (
		llmProvider    string
		apiKey         string
		modelName      string
		vectorDBType   string
		vectorDBURL    string
		vectorDBAPIKey string
		indexName      string
	)

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask a question against an existing vector store collection",
		Long: `Run one query through the RAG pipeline: embed the question, retrieve
similar documents from the vector store, and generate a grounded answer.

Credential flags fall back to env vars (OPENAI_API_KEY, VECTOR_DB_TYPE,
VECTOR_DB_URL, VECTOR_DB_API_KEY, VECTOR_DB_COLLECTION).

Examples:
  ragbridge chat "what is our refund policy?" --index support-docs
  ragbridge chat "summarize Q3 incidents" --vector-db qdrant --vector-db-url http://localhost:6334`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			query := strings.Join(args, " ")
			if apiKey == "" {
				return fmt.Errorf("chat: an LLM API key is required (--api-key or OPENAI_API_KEY)")
			}
			if indexName == "" {
				return fmt.Errorf("chat: a collection is required (--index or VECTOR_DB_COLLECTION)")
			}

			emb, err := embedder.New(llmProvider, embedder.Credentials{APIKey: apiKey})
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			gen, err := generator.New(llmProvider, generator.Credentials{
				APIKey: apiKey,
				Model:  modelName,
			})
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			searcher, err := vectorstore.NewSearcher(vectorstore.SearchParams{
				Provider:    vectorDBType,
				APIKey:      vectorDBAPIKey,
				Collection:  indexName,
				Endpoint:    vectorDBURL,
				Environment: getEnvOrDefault("PINECONE_ENVIRONMENT", vectorstore.DefaultPineconeEnvironment),
			})
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			p, err := pipeline.NewQueryPipeline(emb, searcher, gen)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			result, err := p.Run(ctx, query)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			fmt.Println(result.Response)
			if len(result.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, doc := range result.Sources {
					fmt.Printf("  - %s (score %.2f)\n", doc.Title, doc.Score)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider for embedding and generation")
	cmd.Flags().StringVar(&apiKey, "api-key", getEnvOrDefault("OPENAI_API_KEY", ""), "LLM provider API key")
	cmd.Flags().StringVar(&modelName, "model", "", "Chat model name (default: provider default)")
	cmd.Flags().StringVar(&vectorDBType, "vector-db", getEnvOrDefault("VECTOR_DB_TYPE", "pinecone"), "Vector store backend: pinecone, qdrant, weaviate")
	cmd.Flags().StringVar(&vectorDBURL, "vector-db-url", getEnvOrDefault("VECTOR_DB_URL", ""), "Vector store endpoint URL")
	cmd.Flags().StringVar(&vectorDBAPIKey, "vector-db-api-key", getEnvOrDefault("VECTOR_DB_API_KEY", ""), "Vector store API key")
	cmd.Flags().StringVar(&indexName, "index", getEnvOrDefault("VECTOR_DB_COLLECTION", ""), "Vector store index/collection to search")

	return cmd
}
