package rag

import (
	"context"
)

// Embedder converts text into a dense vector embedding. Implementations are
// bound to one provider, model, and credential set at construction time and
// must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts text into its embedding. The vector length is
	// provider/model-determined; callers must not assume a fixed length
	// across providers.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a natural-language answer for a query conditioned on
// retrieved documents. Implementations are bound to one provider, model, and
// credential set at construction time.
type Generator interface {
	// Generate builds the RAG prompt from the query and at most the top
	// three documents (in the given order) and returns the model's answer.
	Generate(ctx context.Context, query string, docs []Document) (string, error)
}

// Searcher performs a top-k vector similarity search against one collection
// of one vector store backend. Connection parameters are bound at
// construction; the backend connection itself is scoped to each call.
type Searcher interface {
	// Search returns the most similar documents for the query vector, in
	// descending score order. A backend failure does not surface as an
	// error: recognized providers degrade to clearly-tagged placeholder
	// documents so the chat flow can complete end-to-end.
	Search(ctx context.Context, vector []float32) ([]Document, error)
}

// Upserter writes embedded records into one collection of one vector store
// backend, creating the collection on first use.
type Upserter interface {
	// Upsert writes all records and returns the count actually written.
	// On failure the count may be anything below the requested total.
	Upsert(ctx context.Context, records []Record) (int, error)
}

// Extractor pulls raw records from one structured data source. Connection
// URI, collection/table, filter, and limit are bound at construction; the
// backend connection is opened and released within each call.
type Extractor interface {
	// Extract returns at most the configured limit of records matching the
	// configured filter.
	Extract(ctx context.Context) ([]RawRecord, error)
}
