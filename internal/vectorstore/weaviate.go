package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/54b3r/ragbridge/internal/rag"
)

// weaviateBackend talks to a self-hosted Weaviate instance over its REST and
// GraphQL APIs. The collection name maps to a Weaviate class; class names
// must start with an uppercase letter, which is the caller's responsibility.
type weaviateBackend struct{}

func (wv *weaviateBackend) requiresEndpoint() bool { return true }

func (wv *weaviateBackend) headers(apiKey string) map[string]string {
	h := map[string]string{}
	if apiKey != "" {
		h["Authorization"] = "Bearer " + apiKey
	}
	return h
}

func (wv *weaviateBackend) search(ctx context.Context, p SearchParams, vector []float32) ([]rag.Document, error) {
	base := strings.TrimRight(p.Endpoint, "/")

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("weaviate: marshal vector: %w", err)
	}
	query := fmt.Sprintf(
		`{ Get { %s(limit: %d, nearVector: {vector: %s}) { title content _additional { id certainty } } } }`,
		p.Collection, p.TopK, vectorJSON,
	)

	var resp struct {
		Data struct {
			Get map[string][]struct {
				Title      string `json:"title"`
				Content    string `json:"content"`
				Additional struct {
					ID        string  `json:"id"`
					Certainty float32 `json:"certainty"`
				} `json:"_additional"`
			} `json:"Get"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	err = doJSON(ctx, http.MethodPost, base+"/v1/graphql", wv.headers(p.APIKey),
		map[string]any{"query": query}, &resp)
	if err != nil {
		return nil, fmt.Errorf("weaviate: query failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate: query failed: %s", resp.Errors[0].Message)
	}

	hits := resp.Data.Get[p.Collection]
	docs := make([]rag.Document, 0, len(hits))
	for _, h := range hits {
		payload := map[string]any{
			"title":   h.Title,
			"content": h.Content,
		}
		docs = append(docs, normalizeDocument(h.Additional.ID, h.Additional.Certainty, payload))
	}
	return docs, nil
}

func (wv *weaviateBackend) ensureCollection(ctx context.Context, p UpsertParams) error {
	base := strings.TrimRight(p.Endpoint, "/")

	err := doJSON(ctx, http.MethodPost, base+"/v1/schema", wv.headers(p.APIKey), map[string]any{
		"class":      p.Collection,
		"vectorizer": "none",
	}, nil)
	if err != nil {
		var statusErr *httpStatusError
		// Weaviate rejects a duplicate class with 422 — the idempotent outcome.
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnprocessableEntity &&
			strings.Contains(statusErr.Body, "already") {
			return nil
		}
		return fmt.Errorf("weaviate: create class %q: %w", p.Collection, err)
	}
	return nil
}

func (wv *weaviateBackend) upsert(ctx context.Context, p UpsertParams, records []rag.Record) (int, error) {
	base := strings.TrimRight(p.Endpoint, "/")

	type object struct {
		Class      string         `json:"class"`
		ID         string         `json:"id"`
		Vector     []float32      `json:"vector"`
		Properties map[string]any `json:"properties"`
	}

	objects := make([]object, 0, len(records))
	for _, rec := range records {
		objects = append(objects, object{
			Class:  p.Collection,
			ID:     pointUUID(rec.ID),
			Vector: rec.Embedding,
			Properties: map[string]any{
				"text":     rec.Text,
				"metadata": rec.Metadata,
			},
		})
	}

	err := doJSON(ctx, http.MethodPost, base+"/v1/batch/objects", wv.headers(p.APIKey),
		map[string]any{"objects": objects}, nil)
	if err != nil {
		return 0, fmt.Errorf("weaviate: batch upsert failed: %w", err)
	}
	return len(objects), nil
}
