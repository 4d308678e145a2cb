// Package pipeline composes the provider adapters into the two top-level
// flows: the query pipeline (embed → search → generate) and the ingestion
// pipeline (extract → embed per record → upsert). Each run is strictly
// sequential and stateless; every pipeline instance is built per request
// from that request's credentials and provider selection.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/rag"
)

// QueryPipeline runs the chat flow. Stages execute in order:
// embedding → searching → generating. The searching stage cannot fail the
// pipeline — the searcher degrades to placeholder documents on backend
// failure — so the only failure points are embedding and generation.
type QueryPipeline struct {
	// Embedder converts the query text into a vector.
	Embedder rag.Embedder
	// Searcher retrieves similar documents for the query vector.
	Searcher rag.Searcher
	// Generator produces the final answer from the query and documents.
	Generator rag.Generator
}

// QueryResult is the terminal output of a successful query pipeline run.
type QueryResult struct {
	// Response is the generated answer text.
	Response string
	// Sources are the retrieved documents in the order search returned them,
	// possibly the degraded-mode placeholder set.
	Sources []rag.Document
	// Timestamp records when the run completed.
	Timestamp time.Time
}

// NewQueryPipeline validates the wiring of a query pipeline.
func NewQueryPipeline(embedder rag.Embedder, searcher rag.Searcher, generator rag.Generator) (*QueryPipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder must not be nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("pipeline: searcher must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("pipeline: generator must not be nil")
	}
	return &QueryPipeline{Embedder: embedder, Searcher: searcher, Generator: generator}, nil
}

// Run executes the query flow for one request.
func (p *QueryPipeline) Run(ctx context.Context, query string) (*QueryResult, error) {
	log := logging.FromContext(ctx)

	vector, err := p.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pipeline: embedding query failed: %w", err)
	}

	docs, err := p.Searcher.Search(ctx, vector)
	if err != nil {
		// Searchers degrade rather than fail; an error here means a broken
		// implementation, not a backend outage.
		return nil, fmt.Errorf("pipeline: search failed: %w", err)
	}
	log.Debug("search complete", slog.Int("sources", len(docs)))

	answer, err := p.Generator.Generate(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: generation failed: %w", err)
	}

	return &QueryResult{
		Response:  answer,
		Sources:   docs,
		Timestamp: time.Now().UTC(),
	}, nil
}
