package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors for adapter failures. Adapters never surface raw
// provider-specific errors: each remote failure is translated into exactly
// one of these kinds with the original message preserved as context, so
// callers can classify with errors.Is.
var (
	// ErrUnsupportedProvider signals an unknown provider tag. Always a hard
	// failure — never degraded.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrProviderUnavailable signals a recognized provider whose client
	// support is not present in this deployment.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEmbeddingFailed signals a failed embedding call.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrGenerationFailed signals a failed generation call.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmptyGeneration signals a generation call that returned no textual
	// content at all.
	ErrEmptyGeneration = errors.New("empty generation response")
	// ErrExtractionFailed signals a failed source extraction.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrInvalidFilter signals a malformed filter expression.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrVectorStoreWrite signals a failed vector store write. No
	// partial-count guarantee beyond "fewer than requested".
	ErrVectorStoreWrite = errors.New("vector store write failed")
	// ErrMissingEndpoint signals a self-hosted vector store selected without
	// an endpoint URL.
	ErrMissingEndpoint = errors.New("endpoint is required")
)

// UnsupportedProviderError reports an unknown provider tag, naming both the
// adapter kind (embedding, generation, vector store, data source) and the
// offending tag. It unwraps to ErrUnsupportedProvider.
type UnsupportedProviderError struct {
	// Kind is the adapter kind the tag was offered to.
	Kind string
	// Provider is the unrecognized tag.
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("%s provider %q not supported", e.Kind, e.Provider)
}

func (e *UnsupportedProviderError) Unwrap() error { return ErrUnsupportedProvider }

// WrapError attaches a semantic kind and operation context to err while
// keeping both matchable with errors.Is.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}
