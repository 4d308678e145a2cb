// Package vectorstore abstracts top-k vector similarity search and record
// upsert over multiple backend vector databases (Qdrant, Pinecone, Weaviate).
// All connection parameters arrive per request; backends open and release
// their clients within each call.
//
// Search carries a deliberate degraded-mode contract: when a recognized
// provider's backend call fails, the searcher returns a fixed set of
// clearly-labeled placeholder documents instead of propagating the failure,
// so the chat flow can complete end-to-end. Callers distinguish real from
// placeholder results via the "source" metadata key. Unknown provider tags
// are always a hard failure — degradation never masks a configuration typo.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/ragbridge/internal/logging"
	"github.com/54b3r/ragbridge/internal/rag"
)

// defaultTopK is the number of search results returned when the caller
// passes zero.
const defaultTopK = 5

// DefaultPineconeEnvironment is the regional default for the hosted Pinecone
// provider, used when no environment is configured. It exists as an explicit
// configuration field (not hidden process state) so deployments can override
// it per call.
const DefaultPineconeEnvironment = "us-west1-gcp-free"

// placeholderContent is the content fallback used when a backend payload
// carries neither a content nor a text field.
const placeholderContent = "No content available"

// SearchParams holds the per-request configuration for a similarity search.
type SearchParams struct {
	// Provider selects the backend: pinecone, qdrant, weaviate.
	Provider string
	// APIKey authenticates against the backend.
	APIKey string
	// Collection is the index/collection/class name to search.
	Collection string
	// Endpoint is the backend URL. Required for self-hosted providers
	// (qdrant, weaviate); optional for pinecone, which derives its endpoint
	// from the index name and Environment.
	Endpoint string
	// Environment is the Pinecone region (default: DefaultPineconeEnvironment).
	Environment string
	// TopK is the number of results to return (default: 5).
	TopK int
}

// UpsertParams holds the per-request configuration for an upsert.
type UpsertParams struct {
	// Provider selects the backend: pinecone, qdrant, weaviate.
	Provider string
	// APIKey authenticates against the backend.
	APIKey string
	// Collection is the index/collection/class name to write into.
	Collection string
	// Endpoint is the backend URL (see SearchParams.Endpoint).
	Endpoint string
	// Environment is the Pinecone region (default: DefaultPineconeEnvironment).
	Environment string
	// Dimensions is the embedding vector size used when the collection must
	// be created. Must match the embedding model's output size.
	Dimensions int
}

// backend is the per-provider implementation surface. Backends are stateless;
// all configuration arrives through the params structs.
type backend interface {
	// requiresEndpoint reports whether an explicit Endpoint is mandatory.
	requiresEndpoint() bool
	// search runs the raw similarity query. Failures surface as errors —
	// degradation is the Searcher's concern, not the backend's.
	search(ctx context.Context, p SearchParams, vector []float32) ([]rag.Document, error)
	// ensureCollection creates the target collection if it does not exist,
	// with cosine distance and p.Dimensions. "Already exists" is not an error.
	ensureCollection(ctx context.Context, p UpsertParams) error
	// upsert writes the records and returns the count written.
	upsert(ctx context.Context, p UpsertParams, records []rag.Record) (int, error)
}

// backends maps provider tag → implementation. Adding a provider means
// adding an entry here; pipeline code never changes.
var backends = map[string]backend{
	"qdrant":   &qdrantBackend{},
	"pinecone": &pineconeBackend{},
	"weaviate": &weaviateBackend{},
}

// resolve validates the provider tag and endpoint requirement shared by
// NewSearcher and NewUpserter.
func resolve(provider, endpoint string) (backend, error) {
	b, ok := backends[provider]
	if !ok {
		return nil, &rag.UnsupportedProviderError{Kind: "vector store", Provider: provider}
	}
	if b.requiresEndpoint() && endpoint == "" {
		return nil, fmt.Errorf("vectorstore: %s: %w", provider, rag.ErrMissingEndpoint)
	}
	return b, nil
}

// Searcher implements rag.Searcher for one provider and collection.
type Searcher struct {
	backend backend
	params  SearchParams
}

// NewSearcher validates the provider selection and returns a ready searcher.
// Unknown providers and missing endpoints are configuration errors and fail
// here, before any degradation applies.
func NewSearcher(p SearchParams) (*Searcher, error) {
	b, err := resolve(p.Provider, p.Endpoint)
	if err != nil {
		return nil, err
	}
	if p.TopK <= 0 {
		p.TopK = defaultTopK
	}
	if p.Environment == "" {
		p.Environment = DefaultPineconeEnvironment
	}
	return &Searcher{backend: b, params: p}, nil
}

// Search runs the similarity query. Backend failures of any kind — network,
// auth, missing collection — do not propagate: the searcher logs the failure
// and returns the provider's placeholder document set so the pipeline's
// search stage can never fail.
func (s *Searcher) Search(ctx context.Context, vector []float32) ([]rag.Document, error) {
	docs, err := s.backend.search(ctx, s.params, vector)
	if err != nil {
		logging.FromContext(ctx).Warn("vector search degraded to placeholder results",
			slog.String("provider", s.params.Provider),
			slog.String("collection", s.params.Collection),
			slog.Any("error", err),
		)
		return placeholderDocuments(s.params.Provider), nil
	}
	return docs, nil
}

// Upserter implements rag.Upserter for one provider and collection.
type Upserter struct {
	backend backend
	params  UpsertParams
}

// NewUpserter validates the provider selection and returns a ready upserter.
func NewUpserter(p UpsertParams) (*Upserter, error) {
	b, err := resolve(p.Provider, p.Endpoint)
	if err != nil {
		return nil, err
	}
	if p.Environment == "" {
		p.Environment = DefaultPineconeEnvironment
	}
	return &Upserter{backend: b, params: p}, nil
}

// Upsert ensures the target collection exists (idempotently — an "already
// exists" outcome is success) and writes all records in one call, returning
// the count written. Unlike search there is no degraded mode: write failures
// surface as rag.ErrVectorStoreWrite.
func (u *Upserter) Upsert(ctx context.Context, records []rag.Record) (int, error) {
	if err := u.backend.ensureCollection(ctx, u.params); err != nil {
		return 0, rag.WrapError(rag.ErrVectorStoreWrite, u.params.Provider+" create collection", err)
	}
	n, err := u.backend.upsert(ctx, u.params, records)
	if err != nil {
		return n, rag.WrapError(rag.ErrVectorStoreWrite, u.params.Provider+" upsert", err)
	}
	return n, nil
}

// normalizeDocument converts a backend's raw hit (id, score, payload) into a
// rag.Document with the mandatory field fallbacks, so downstream prompt
// construction never sees a missing title or content.
func normalizeDocument(id string, score float32, payload map[string]any) rag.Document {
	if payload == nil {
		payload = map[string]any{}
	}

	title, _ := payload["title"].(string)
	if title == "" {
		title = fmt.Sprintf("Document %s", id)
	}

	content, _ := payload["content"].(string)
	if content == "" {
		content, _ = payload["text"].(string)
	}
	if content == "" {
		content = placeholderContent
	}

	return rag.Document{
		Title:    title,
		Content:  content,
		Score:    score,
		Metadata: payload,
	}
}
