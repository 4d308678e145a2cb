package rag

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnsupportedProviderErrorNamesProvider(t *testing.T) {
	t.Parallel()

	err := &UnsupportedProviderError{Kind: "vector store", Provider: "foo"}

	if !strings.Contains(err.Error(), `"foo"`) {
		t.Errorf("error message must name the provider, got: %s", err)
	}
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("expected errors.Is(err, ErrUnsupportedProvider) to hold")
	}
}

func TestWrapErrorPreservesKindAndCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection refused")
	err := WrapError(ErrExtractionFailed, "mongodb extraction", cause)

	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected wrapped kind to be matchable, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected original message preserved, got: %s", err)
	}
	if !strings.Contains(err.Error(), "mongodb extraction") {
		t.Errorf("expected operation context, got: %s", err)
	}
}

func TestWrapErrorNil(t *testing.T) {
	t.Parallel()

	if err := WrapError(ErrEmbeddingFailed, "embed", nil); err != nil {
		t.Errorf("expected nil for nil cause, got %v", err)
	}
}
