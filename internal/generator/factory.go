// Package generator provides implementations of the rag.Generator interface
// for producing natural-language answers conditioned on retrieved context.
// Like the embedder package, credentials and model selection arrive per
// request, so constructors take an explicit Credentials value.
package generator

import (
	"github.com/54b3r/ragbridge/internal/rag"
)

// Default chat model used when the caller does not specify one.
const defaultOpenAIModel = "gpt-3.5-turbo"

// Adapter-level sampling defaults. These are deliberately not per-request
// tunables: holding them constant keeps generation behavior reproducible
// across callers.
const (
	// generationTemperature is the fixed sampling temperature.
	generationTemperature = 0.7
	// generationMaxTokens caps the response length.
	generationMaxTokens = 500
)

// Credentials holds the per-request settings for constructing a generator.
type Credentials struct {
	// APIKey is the authentication key for the provider.
	APIKey string
	// Model is the chat model name. Empty selects the provider default.
	Model string
	// BaseURL overrides the provider's default API endpoint. Used for
	// OpenAI-compatible gateways and in tests.
	BaseURL string
}

// registry maps provider tag → constructor. Adding a provider means adding
// an entry here; pipeline code never changes.
var registry = map[string]func(Credentials) rag.Generator{
	"openai": func(c Credentials) rag.Generator { return NewOpenAIGenerator(c) },
}

// New constructs a rag.Generator for the named provider with the given
// per-request credentials. Unknown providers fail hard with
// rag.UnsupportedProviderError naming the tag.
func New(provider string, creds Credentials) (rag.Generator, error) {
	ctor, ok := registry[provider]
	if !ok {
		return nil, &rag.UnsupportedProviderError{Kind: "generation", Provider: provider}
	}
	return ctor(creds), nil
}
