package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/rag"
)

// contentPreviewLimit caps the metadata preview attached to each vector.
const contentPreviewLimit = 200

// IngestPipeline runs the ingestion flow: extract records from a data
// source, embed each record's serialized text, and write all vectors to the
// store in a single upsert. Embedding is sequential; a failure on any record
// aborts the run before anything is written.
type IngestPipeline struct {
	// Extractor pulls raw records from the configured data source.
	Extractor rag.Extractor
	// Embedder converts each serialized record into a vector.
	Embedder rag.Embedder
	// Upserter writes the batch to the vector store.
	Upserter rag.Upserter
}

// IngestResult is the terminal output of an ingestion run.
type IngestResult struct {
	// Success is false when the source matched no records; the run is still
	// a normal completion, not an error.
	Success bool
	// Message is a human-readable summary of the run.
	Message string
	// DocumentsProcessed counts the records extracted and embedded.
	DocumentsProcessed int
	// VectorsCreated counts the vectors the store reported written.
	VectorsCreated int
	// Timestamp records when the run completed.
	Timestamp time.Time
}

// NewIngestPipeline validates the wiring of an ingestion pipeline.
func NewIngestPipeline(extractor rag.Extractor, embedder rag.Embedder, upserter rag.Upserter) (*IngestPipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("pipeline: extractor must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder must not be nil")
	}
	if upserter == nil {
		return nil, fmt.Errorf("pipeline: upserter must not be nil")
	}
	return &IngestPipeline{Extractor: extractor, Embedder: embedder, Upserter: upserter}, nil
}

// Run executes the ingestion flow for one request.
func (p *IngestPipeline) Run(ctx context.Context) (*IngestResult, error) {
	log := logging.FromContext(ctx)

	raws, err := p.Extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: extraction failed: %w", err)
	}
	if len(raws) == 0 {
		log.Info("ingestion matched no records")
		return &IngestResult{
			Success:   false,
			Message:   "No documents found matching the criteria",
			Timestamp: time.Now().UTC(),
		}, nil
	}

	records := make([]rag.Record, 0, len(raws))
	for i, raw := range raws {
		text := serializeRecord(raw)
		vector, err := p.Embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("pipeline: embedding record %d failed: %w", i, err)
		}
		records = append(records, rag.Record{
			ID:        fmt.Sprintf("doc_%d", i),
			Text:      text,
			Embedding: vector,
			Metadata: map[string]any{
				"source":          "ingestion",
				"doc_index":       i,
				"content_preview": contentPreview(text),
			},
		})
	}

	written, err := p.Upserter.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("pipeline: vector store write failed: %w", err)
	}
	log.Info("ingestion complete",
		slog.Int("documents", len(records)),
		slog.Int("vectors", written))

	return &IngestResult{
		Success:            true,
		Message:            fmt.Sprintf("Successfully ingested %d documents into the vector store", len(records)),
		DocumentsProcessed: len(records),
		VectorsCreated:     written,
		Timestamp:          time.Now().UTC(),
	}, nil
}

// serializeRecord renders a raw record as indented JSON for embedding.
// Records that cannot marshal fall back to Go's default formatting so a
// single odd value never sinks the run.
func serializeRecord(raw rag.RawRecord) string {
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(raw))
	}
	return string(b)
}

func contentPreview(text string) string {
	if len(text) <= contentPreviewLimit {
		return text
	}
	return text[:contentPreviewLimit] + "..."
}
