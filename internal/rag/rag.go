// Package rag defines the domain types, adapter interfaces, and error
// taxonomy shared by the query and ingestion pipelines. Concrete provider
// implementations (OpenAI, Qdrant, Pinecone, Weaviate, MongoDB, PostgreSQL,
// MySQL) live in their own packages and satisfy these interfaces so the
// pipeline layer never depends on a specific backend.
package rag

import "time"

// Document is a single retrieved source returned by a vector similarity
// search. Documents are produced fresh per search call and never persisted;
// ordering is descending by Score as returned by the backing store.
type Document struct {
	// Title is the document title, synthesized as "Document <id>" when the
	// backend payload carries no title field.
	Title string `json:"title"`

	// Content is the document text used for prompt construction. Never empty:
	// backends without a content or text payload field yield a fixed
	// placeholder string instead.
	Content string `json:"content"`

	// Score is the similarity score assigned by the backend (higher = more
	// relevant).
	Score float32 `json:"score"`

	// Metadata holds the raw backend payload. A "source" key identifies
	// degraded-mode placeholder documents (value contains "demo").
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Record is one embedded unit produced by the ingestion pipeline and consumed
// exactly once by a vector store upsert. Immutable once created.
type Record struct {
	// ID is the pipeline-assigned identifier (e.g. "doc_3"), not a
	// source-native key.
	ID string

	// Text is the serialized form of the raw extracted record.
	Text string

	// Embedding is the vector computed for Text. Its length must match the
	// target collection's configured dimensionality.
	Embedding []float32

	// Metadata holds ingestion bookkeeping (source tag, record index,
	// content preview).
	Metadata map[string]any
}

// IngestRun summarizes one completed ingestion run for the history store.
type IngestRun struct {
	// Source is the data source provider tag (e.g. "mongodb").
	Source string

	// VectorStore is the vector store provider tag (e.g. "qdrant").
	VectorStore string

	// Collection is the vector store collection written to.
	Collection string

	// Documents is the number of records extracted and embedded.
	Documents int

	// Vectors is the number of vectors the store reported written.
	Vectors int

	// Outcome is "ok" for a successful run, "empty" when the source matched
	// no records.
	Outcome string

	// CreatedAt is when the run completed.
	CreatedAt time.Time
}

// RawRecord is one unstructured record as returned by a source extractor.
// No schema is imposed; values that are not JSON-native (object identifiers,
// dates) are converted to plain strings before the record leaves the adapter.
type RawRecord map[string]any
