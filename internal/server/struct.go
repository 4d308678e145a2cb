package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/ragbridge/internal/pipeline"
	"github.com/54b3r/ragbridge/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// PineconeEnvironment is the Pinecone region used when a chat or ingest
	// request does not provide an explicit vector store URL.
	PineconeEnvironment string
	// MetricsRegistry receives all Prometheus metric registrations. If nil,
	// prometheus.DefaultRegisterer is used. Tests inject a fresh registry.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. If nil, prometheus.DefaultGatherer
	// is used.
	MetricsGatherer prometheus.Gatherer
	// History records completed ingestion runs and serves GET /api/history.
	// Optional; nil disables run history.
	History RunHistory
}

// queryRunner executes the chat pipeline for one request. The production
// implementation builds per-request adapters from the request credentials;
// tests inject a fake.
type queryRunner func(ctx context.Context, req chatRequest) (*pipeline.QueryResult, error)

// ingestRunner executes the ingestion pipeline for one request.
type ingestRunner func(ctx context.Context, req ingestRequest) (*pipeline.IngestResult, error)

// RunHistory persists a summary of each completed ingestion run and lists
// the most recent ones. *store.SQLiteStore satisfies it; tests inject a fake.
type RunHistory interface {
	Append(ctx context.Context, run rag.IngestRun) error
	Recent(ctx context.Context, n int) ([]rag.IngestRun, error)
}

// Server is the HTTP server that exposes the RAG pipelines.
type Server struct {
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus metrics owned by this server.
	metrics *serverMetrics
	// runQuery executes the chat pipeline; overridden by tests.
	runQuery queryRunner
	// runIngest executes the ingestion pipeline; overridden by tests.
	runIngest ingestRunner
	// history records and lists ingestion runs. May be nil.
	history RunHistory
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Query is the user's natural language question.
	Query string `json:"query"`
	// LLMProvider selects the embedding and generation provider.
	LLMProvider string `json:"llm_provider"`
	// APIKey authenticates against the LLM provider.
	APIKey string `json:"api_key"`
	// ModelName is the chat model to generate with.
	ModelName string `json:"model_name"`
	// VectorDBType selects the vector store backend.
	VectorDBType string `json:"vector_db_type"`
	// VectorDBURL is the vector store endpoint. Optional for pinecone.
	VectorDBURL string `json:"vector_db_url,omitempty"`
	// VectorDBAPIKey authenticates against the vector store.
	VectorDBAPIKey string `json:"vector_db_api_key"`
	// IndexName is the index/collection to search.
	IndexName string `json:"index_name"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	// Response is the generated answer.
	Response string `json:"response"`
	// Sources are the documents the answer was grounded on.
	Sources []rag.Document `json:"sources"`
	// Timestamp is the RFC 3339 completion time of the run.
	Timestamp string `json:"timestamp"`
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// DataSourceType selects the source backend: mongodb, postgresql, mysql.
	DataSourceType string `json:"data_source_type"`
	// ConnectionURI is the provider-native connection string.
	ConnectionURI string `json:"connection_uri"`
	// CollectionTableName is the collection or table to read from.
	CollectionTableName string `json:"collection_table_name"`
	// FilterQuery is an optional provider-native filter expression.
	FilterQuery string `json:"filter_query,omitempty"`
	// Limit bounds the number of records extracted. Defaults to 10.
	Limit *int `json:"limit,omitempty"`
	// VectorDBType selects the vector store backend.
	VectorDBType string `json:"vector_db_type"`
	// VectorDBURL is the vector store endpoint.
	VectorDBURL string `json:"vector_db_url"`
	// VectorDBAPIKey authenticates against the vector store.
	VectorDBAPIKey string `json:"vector_db_api_key"`
	// CollectionName is the vector store collection to write into.
	CollectionName string `json:"collection_name"`
	// OpenAIAPIKey authenticates the embedding calls.
	OpenAIAPIKey string `json:"openai_api_key"`
	// EmbeddingModel is the embedding model. Defaults to text-embedding-ada-002.
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	// Success is false when the source matched no records.
	Success bool `json:"success"`
	// Message is a human-readable summary of the run.
	Message string `json:"message"`
	// DocumentsProcessed counts the records extracted and embedded.
	DocumentsProcessed int `json:"documents_processed"`
	// VectorsCreated counts the vectors written to the store.
	VectorsCreated int `json:"vectors_created"`
	// Timestamp is the RFC 3339 completion time of the run.
	Timestamp string `json:"timestamp"`
}

// ingestRunEntry is one run in the GET /api/history response.
type ingestRunEntry struct {
	// Source is the data source backend the run extracted from.
	Source string `json:"source"`
	// VectorStore is the vector store backend the run wrote to.
	VectorStore string `json:"vector_store"`
	// Collection is the vector store collection written into.
	Collection string `json:"collection"`
	// Documents counts the records extracted and embedded.
	Documents int `json:"documents"`
	// Vectors counts the vectors written.
	Vectors int `json:"vectors"`
	// Outcome is "ok" or "empty".
	Outcome string `json:"outcome"`
	// CreatedAt is the RFC 3339 completion time of the run.
	CreatedAt string `json:"created_at"`
}

// historyResponse is the JSON response for GET /api/history, newest first.
type historyResponse struct {
	// Runs are the most recent ingestion runs.
	Runs []ingestRunEntry `json:"runs"`
}

// rootResponse is the JSON response for GET /.
type rootResponse struct {
	// Message identifies the service.
	Message string `json:"message"`
	// Version is the build version of the binary.
	Version string `json:"version"`
}

// healthResponse is the JSON response for GET /api/health.
type healthResponse struct {
	// Status is always "healthy" when the process can respond.
	Status string `json:"status"`
	// Timestamp is the RFC 3339 time the check ran.
	Timestamp string `json:"timestamp"`
}

// errorResponse is the JSON error body for all 4xx/5xx API responses.
type errorResponse struct {
	// Detail describes the failure.
	Detail string `json:"detail"`
}
