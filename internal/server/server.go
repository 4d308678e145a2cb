// Package server implements the HTTP server that exposes the RAG query and
// ingestion pipelines as a JSON REST API.
// The server is started by the `ragbridge serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/ragbridge/internal/embedder"
	"github.com/54b3r/ragbridge/internal/generator"
	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/pipeline"
	"github.com/54b3r/ragbridge/internal/rag"
	"github.com/54b3r/ragbridge/internal/source"
	"github.com/54b3r/ragbridge/internal/vectorstore"
	"github.com/54b3r/ragbridge/internal/version"
)

// defaultIngestLimit caps extraction when the request omits a limit.
const defaultIngestLimit = 10

// defaultHistoryLimit and maxHistoryLimit bound GET /api/history listings.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// New constructs a Server from the provided config.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Ingestion runs embed every extracted record before responding.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	registry := cfg.MetricsRegistry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(registry),
		history: cfg.History,
	}
	s.runQuery = s.executeQuery
	s.runIngest = s.executeIngest

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("api authentication disabled: no API key configured")
	}
	protect := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", protect("chat", s.handleChat))
	mux.Handle("POST /api/ingest", protect("ingest", s.handleIngest))
	mux.Handle("GET /api/history", protect("history", s.handleHistory))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /{$}", s.instrument("root", http.HandlerFunc(s.handleRoot)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleRoot handles GET / with a service banner.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "ragbridge API is running",
		Version: version.Version,
	})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleChat handles POST /api/chat. It builds a query pipeline from the
// request's credentials, runs it, and returns the answer with its sources.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	result, err := s.runQuery(r.Context(), req)
	if err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("error").Inc()
		s.writePipelineError(w, r, err)
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.chatDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  result.Response,
		Sources:   result.Sources,
		Timestamp: result.Timestamp.Format(time.RFC3339),
	})
}

// handleIngest handles POST /api/ingest. It builds an ingestion pipeline from
// the request's credentials, runs it, and records the run in history.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConnectionURI == "" {
		writeError(w, http.StatusBadRequest, "connection_uri is required")
		return
	}
	if req.CollectionTableName == "" {
		writeError(w, http.StatusBadRequest, "collection_table_name is required")
		return
	}
	if req.OpenAIAPIKey == "" {
		writeError(w, http.StatusBadRequest, "openai_api_key is required")
		return
	}
	if req.Limit != nil && *req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	result, err := s.runIngest(r.Context(), req)
	if err != nil {
		s.metrics.ingestRequestsTotal.WithLabelValues("error").Inc()
		s.writePipelineError(w, r, err)
		return
	}

	outcome := "ok"
	if !result.Success {
		outcome = "empty"
	}
	s.metrics.ingestRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.ingestDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	s.metrics.ingestDocumentsTotal.Add(float64(result.DocumentsProcessed))

	s.recordRun(r.Context(), req, result, outcome)

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:            result.Success,
		Message:            result.Message,
		DocumentsProcessed: result.DocumentsProcessed,
		VectorsCreated:     result.VectorsCreated,
		Timestamp:          result.Timestamp.Format(time.RFC3339),
	})
}

// handleHistory handles GET /api/history, listing recent ingestion runs
// newest first. An optional ?limit= parameter caps the count.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	runs := []rag.IngestRun{}
	if s.history != nil {
		var err error
		runs, err = s.history.Recent(r.Context(), limit)
		if err != nil {
			logging.FromContext(r.Context()).Error("failed to list ingestion history", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to list ingestion history")
			return
		}
	}

	entries := make([]ingestRunEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, ingestRunEntry{
			Source:      run.Source,
			VectorStore: run.VectorStore,
			Collection:  run.Collection,
			Documents:   run.Documents,
			Vectors:     run.Vectors,
			Outcome:     run.Outcome,
			CreatedAt:   run.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, historyResponse{Runs: entries})
}

// recordRun appends the completed ingestion run to the history store.
// History failures are logged, never surfaced to the client.
func (s *Server) recordRun(ctx context.Context, req ingestRequest, result *pipeline.IngestResult, outcome string) {
	if s.history == nil {
		return
	}
	run := rag.IngestRun{
		Source:      req.DataSourceType,
		VectorStore: req.VectorDBType,
		Collection:  req.CollectionName,
		Documents:   result.DocumentsProcessed,
		Vectors:     result.VectorsCreated,
		Outcome:     outcome,
		CreatedAt:   result.Timestamp,
	}
	if err := s.history.Append(ctx, run); err != nil {
		logging.FromContext(ctx).Warn("failed to record ingestion run", slog.Any("error", err))
	}
}

// executeQuery is the production queryRunner: it constructs per-request
// adapters from the request credentials and runs the query pipeline.
func (s *Server) executeQuery(ctx context.Context, req chatRequest) (*pipeline.QueryResult, error) {
	emb, err := embedder.New(req.LLMProvider, embedder.Credentials{APIKey: req.APIKey})
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(req.LLMProvider, generator.Credentials{
		APIKey: req.APIKey,
		Model:  req.ModelName,
	})
	if err != nil {
		return nil, err
	}
	searcher, err := vectorstore.NewSearcher(vectorstore.SearchParams{
		Provider:    req.VectorDBType,
		APIKey:      req.VectorDBAPIKey,
		Collection:  req.IndexName,
		Endpoint:    req.VectorDBURL,
		Environment: s.cfg.PineconeEnvironment,
	})
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewQueryPipeline(emb, searcher, gen)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, req.Query)
}

// executeIngest is the production ingestRunner.
func (s *Server) executeIngest(ctx context.Context, req ingestRequest) (*pipeline.IngestResult, error) {
	limit := defaultIngestLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	extractor, err := source.NewExtractor(source.ExtractParams{
		Provider:      req.DataSourceType,
		ConnectionURI: req.ConnectionURI,
		Collection:    req.CollectionTableName,
		Filter:        req.FilterQuery,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	emb, err := embedder.New("openai", embedder.Credentials{
		APIKey: req.OpenAIAPIKey,
		Model:  req.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}
	upserter, err := vectorstore.NewUpserter(vectorstore.UpsertParams{
		Provider:    req.VectorDBType,
		APIKey:      req.VectorDBAPIKey,
		Collection:  req.CollectionName,
		Endpoint:    req.VectorDBURL,
		Environment: s.cfg.PineconeEnvironment,
		Dimensions:  embedder.ModelDimensions(req.EmbeddingModel),
	})
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewIngestPipeline(extractor, emb, upserter)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// writePipelineError maps pipeline errors onto HTTP status codes:
// configuration and user errors become 400, everything else 500.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rag.ErrUnsupportedProvider),
		errors.Is(err, rag.ErrMissingEndpoint),
		errors.Is(err, rag.ErrInvalidFilter),
		errors.Is(err, rag.ErrProviderUnavailable):
		status = http.StatusBadRequest
	}

	if status >= 500 {
		log.Error("pipeline failed", slog.Any("error", err))
	} else {
		log.Warn("pipeline rejected request", slog.Any("error", err))
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
