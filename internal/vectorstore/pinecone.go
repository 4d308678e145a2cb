package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/54b3r/ragbridge/internal/rag"
)

// pineconeBackend talks to the hosted Pinecone service over its REST API.
// No SDK is used — plain HTTP keeps the dependency surface of the hosted
// provider identical to the self-hosted ones.
type pineconeBackend struct{}

// requiresEndpoint is false: Pinecone resolves its data-plane endpoint from
// the index name plus the configured environment. An explicit Endpoint still
// overrides the derived one (used by tests and private deployments).
func (pc *pineconeBackend) requiresEndpoint() bool { return false }

// indexURL returns the data-plane base URL for the index.
func (pc *pineconeBackend) indexURL(endpoint, collection, environment string) string {
	if endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://%s.svc.%s.pinecone.io", collection, environment)
}

// controllerURL returns the control-plane base URL used for index creation.
func (pc *pineconeBackend) controllerURL(endpoint, environment string) string {
	if endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://controller.%s.pinecone.io", environment)
}

func (pc *pineconeBackend) headers(apiKey string) map[string]string {
	return map[string]string{"Api-Key": apiKey}
}

// pineconeMatch is one hit in a query response.
type pineconeMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

func (pc *pineconeBackend) search(ctx context.Context, p SearchParams, vector []float32) ([]rag.Document, error) {
	url := pc.indexURL(p.Endpoint, p.Collection, p.Environment) + "/query"

	var resp struct {
		Matches []pineconeMatch `json:"matches"`
	}
	err := doJSON(ctx, http.MethodPost, url, pc.headers(p.APIKey), map[string]any{
		"vector":          vector,
		"topK":            p.TopK,
		"includeMetadata": true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("pinecone: query failed: %w", err)
	}

	docs := make([]rag.Document, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		docs = append(docs, normalizeDocument(m.ID, m.Score, m.Metadata))
	}
	return docs, nil
}

func (pc *pineconeBackend) ensureCollection(ctx context.Context, p UpsertParams) error {
	url := pc.controllerURL(p.Endpoint, p.Environment) + "/databases"

	err := doJSON(ctx, http.MethodPost, url, pc.headers(p.APIKey), map[string]any{
		"name":      p.Collection,
		"dimension": p.Dimensions,
		"metric":    "cosine",
	}, nil)
	if err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			// Index already exists — the idempotent outcome.
			return nil
		}
		return fmt.Errorf("pinecone: create index %q: %w", p.Collection, err)
	}
	return nil
}

func (pc *pineconeBackend) upsert(ctx context.Context, p UpsertParams, records []rag.Record) (int, error) {
	url := pc.indexURL(p.Endpoint, p.Collection, p.Environment) + "/vectors/upsert"

	type vectorEntry struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata"`
	}

	vectors := make([]vectorEntry, 0, len(records))
	for _, rec := range records {
		vectors = append(vectors, vectorEntry{
			ID:     strconv.FormatUint(uint64(pointID(rec.ID)), 10),
			Values: rec.Embedding,
			Metadata: map[string]any{
				"text":     rec.Text,
				"metadata": rec.Metadata,
			},
		})
	}

	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := doJSON(ctx, http.MethodPost, url, pc.headers(p.APIKey), map[string]any{"vectors": vectors}, &resp); err != nil {
		return 0, fmt.Errorf("pinecone: upsert failed: %w", err)
	}
	// A zero count means the service omitted the field; a short count means
	// it accepted the request but dropped vectors, which is a write failure.
	if resp.UpsertedCount == 0 {
		return len(vectors), nil
	}
	if resp.UpsertedCount < len(vectors) {
		return resp.UpsertedCount, fmt.Errorf("pinecone: upsert wrote %d of %d vectors",
			resp.UpsertedCount, len(vectors))
	}
	return resp.UpsertedCount, nil
}
