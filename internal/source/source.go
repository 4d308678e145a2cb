// Package source abstracts "extract up to N records matching an optional
// filter" over multiple structured record stores (MongoDB, PostgreSQL,
// MySQL). Connection URIs arrive per request; every extractor opens its
// backend connection inside Extract and releases it before returning,
// including on error paths.
package source

import (
	"github.com/54b3r/ragbridge/internal/rag"
)

// ExtractParams holds the per-request configuration for an extraction.
type ExtractParams struct {
	// Provider selects the backend: mongodb, postgresql, mysql.
	Provider string
	// ConnectionURI is the provider-native connection string.
	ConnectionURI string
	// Collection is the collection (document stores) or table (relational
	// stores) to read from.
	Collection string
	// Filter is an optional provider-native filter expression: a JSON object
	// for mongodb, a raw boolean SQL predicate for relational providers.
	Filter string
	// Limit bounds the number of records returned. Always applied; zero
	// yields zero records.
	Limit int
}

// registry maps provider tag → constructor. Adding a provider means adding
// an entry here; pipeline code never changes.
var registry = map[string]func(ExtractParams) rag.Extractor{
	"mongodb":    func(p ExtractParams) rag.Extractor { return &mongoExtractor{params: p} },
	"postgresql": func(p ExtractParams) rag.Extractor { return &relationalExtractor{params: p, driver: "pgx", source: "postgresql"} },
	"mysql":      func(p ExtractParams) rag.Extractor { return &relationalExtractor{params: p, driver: "mysql", source: "mysql"} },
}

// NewExtractor constructs a rag.Extractor for the named provider. Unknown
// providers fail hard with rag.UnsupportedProviderError naming the tag.
func NewExtractor(p ExtractParams) (rag.Extractor, error) {
	ctor, ok := registry[p.Provider]
	if !ok {
		return nil, &rag.UnsupportedProviderError{Kind: "data source", Provider: p.Provider}
	}
	return ctor(p), nil
}
