// Package embedder provides implementations of the rag.Embedder interface
// for converting text into dense vector embeddings. Credentials and model
// selection arrive per request, so constructors take an explicit Credentials
// value instead of reading process-wide configuration.
package embedder

import (
	"github.com/54b3r/ragbridge/internal/rag"
)

// Default embedding model used when the caller does not specify one.
const defaultOpenAIModel = "text-embedding-ada-002"

// Known embedding model output dimensions. Used to pre-configure vector
// store collections — a mismatch between these and an existing collection is
// a configuration error, never silently handled.
const (
	dimAda002 = 1536
	dim3Small = 1536
	dim3Large = 3072
)

// Credentials holds the per-request settings for constructing an embedder.
type Credentials struct {
	// APIKey is the authentication key for the provider.
	APIKey string
	// Model is the embedding model name. Empty selects the provider default.
	Model string
	// BaseURL overrides the provider's default API endpoint. Used for
	// OpenAI-compatible gateways and in tests.
	BaseURL string
}

// registry maps provider tag → constructor. Adding a provider means adding
// an entry here; pipeline code never changes.
var registry = map[string]func(Credentials) rag.Embedder{
	"openai": func(c Credentials) rag.Embedder { return NewOpenAIEmbedder(c) },
}

// New constructs a rag.Embedder for the named provider with the given
// per-request credentials. Unknown providers fail hard with
// rag.UnsupportedProviderError naming the tag.
func New(provider string, creds Credentials) (rag.Embedder, error) {
	ctor, ok := registry[provider]
	if !ok {
		return nil, &rag.UnsupportedProviderError{Kind: "embedding", Provider: provider}
	}
	return ctor(creds), nil
}

// ModelDimensions returns the output vector size of a known embedding model.
// Callers that pre-configure a vector store collection should use this
// rather than hardcoding a value. Unknown models resolve to the ada-002
// dimensionality, the reference model's size.
func ModelDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return dim3Large
	case "text-embedding-3-small":
		return dim3Small
	case "text-embedding-ada-002", "":
		return dimAda002
	default:
		return dimAda002
	}
}
