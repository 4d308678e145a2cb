package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/54b3r/ragbridge/internal/rag"
)

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New("anthropic", Credentials{APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !errors.Is(err, rag.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("expected error to name the provider, got: %s", err)
	}
}

func TestBuildPromptContainsTopDocumentsAndQuery(t *testing.T) {
	t.Parallel()

	docs := []rag.Document{
		{Title: "Sample Document 1", Content: "first content", Score: 0.95},
		{Title: "Sample Document 2", Content: "second content", Score: 0.87},
	}

	prompt := BuildPrompt("What is RAG?", docs)

	for _, want := range []string{
		"Document: Sample Document 1",
		"first content",
		"Document: Sample Document 2",
		"second content",
		"Question: What is RAG?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Higher-scored document must appear first — search order is preserved.
	if strings.Index(prompt, "Sample Document 1") > strings.Index(prompt, "Sample Document 2") {
		t.Error("expected 0.95-scored document before 0.87-scored document")
	}
}

func TestBuildPromptCapsContextAtThreeDocuments(t *testing.T) {
	t.Parallel()

	docs := []rag.Document{
		{Title: "A", Content: "a"},
		{Title: "B", Content: "b"},
		{Title: "C", Content: "c"},
		{Title: "D", Content: "d"},
	}

	prompt := BuildPrompt("q", docs)

	if strings.Contains(prompt, "Document: D") {
		t.Error("expected fourth document to be excluded from the context block")
	}
	if !strings.Contains(prompt, "Document: C") {
		t.Error("expected third document to be included")
	}
}

// chatHandler returns an httptest handler imitating the chat completions
// endpoint. The captured request body is stored in dst.
func chatHandler(t *testing.T, content string, dst *map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if dst != nil {
			if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestOpenAIGeneratorSuccess(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(chatHandler(t, "RAG is retrieval-augmented generation.", &captured))
	defer srv.Close()

	gen, err := New("openai", Credentials{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	docs := []rag.Document{
		{Title: "Doc A", Content: "alpha", Score: 0.95},
		{Title: "Doc B", Content: "beta", Score: 0.87},
	}
	answer, err := gen.Generate(context.Background(), "What is RAG?", docs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "RAG is retrieval-augmented generation." {
		t.Errorf("unexpected answer: %s", answer)
	}

	// The outbound prompt must contain both documents and the literal query.
	raw, _ := json.Marshal(captured)
	body := string(raw)
	for _, want := range []string{"Doc A", "alpha", "Doc B", "beta", "What is RAG?"} {
		if !strings.Contains(body, want) {
			t.Errorf("outbound request missing %q", want)
		}
	}
	if captured["max_tokens"] != float64(500) {
		t.Errorf("expected max_tokens 500, got %v", captured["max_tokens"])
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", captured["temperature"])
	}
}

func TestOpenAIGeneratorEmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(chatHandler(t, "", nil))
	defer srv.Close()

	gen := NewOpenAIGenerator(Credentials{APIKey: "k", BaseURL: srv.URL})

	_, err := gen.Generate(context.Background(), "q", nil)
	if !errors.Is(err, rag.ErrEmptyGeneration) {
		t.Errorf("expected ErrEmptyGeneration, got %v", err)
	}
}

func TestOpenAIGeneratorRemoteFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(Credentials{APIKey: "k", BaseURL: srv.URL})

	_, err := gen.Generate(context.Background(), "q", nil)
	if !errors.Is(err, rag.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}
