package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/54b3r/ragbridge/internal/rag"
)

// OpenAIEmbedder implements rag.Embedder using the OpenAI embeddings API.
// It is safe for concurrent use. No embeddings are cached — every call is an
// outbound request.
type OpenAIEmbedder struct {
	// client is the OpenAI API client bound to this request's credentials.
	client *openai.Client
	// model is the embedding model name (e.g. "text-embedding-ada-002").
	model string
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from per-request credentials.
func NewOpenAIEmbedder(creds Credentials) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(creds.APIKey)
	if creds.BaseURL != "" {
		cfg.BaseURL = creds.BaseURL
	}
	model := creds.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Embed converts text into its embedding vector. Any failure from the remote
// service — auth, rate limit, malformed input — is translated into
// rag.ErrEmbeddingFailed with the original message preserved; callers never
// see the provider-specific error type directly.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, rag.WrapError(rag.ErrEmbeddingFailed, "openai embedder", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedder: %w: no embedding data returned", rag.ErrEmbeddingFailed)
	}
	return resp.Data[0].Embedding, nil
}
