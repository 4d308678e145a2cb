// Package budget provides token budget estimation and context trimming for
// prompt construction. Because requests may target any chat model with any
// tokenizer, this package uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose and code). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/54b3r/ragbridge/internal/rag"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English and code; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default prompt context budget in tokens.
	// Conservative enough to fit within 8k-context models (GPT-3.5) while
	// leaving room for the generated answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateDocuments returns the estimated total token count for a slice of
// retrieved documents, summing title + content for each.
func EstimateDocuments(docs []rag.Document) int {
	total := 0
	for _, d := range docs {
		// Each context block carries a small formatting overhead (~4 tokens).
		total += 4
		total += Estimate(d.Title)
		total += Estimate(d.Content)
	}
	return total
}

// TrimDocuments drops documents from the tail of docs until the estimated
// token count of query + remaining documents fits within maxTokens. The head
// of the slice holds the highest-scoring documents, so trimming from the tail
// removes the least relevant context first. Order is preserved.
//
// Returns the trimmed slice. If even the query alone exceeds the budget, an
// empty slice is returned — the query itself is never trimmed here.
func TrimDocuments(query string, docs []rag.Document, maxTokens int) []rag.Document {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	queryTokens := Estimate(query)

	for len(docs) > 0 && queryTokens+EstimateDocuments(docs) > maxTokens {
		docs = docs[:len(docs)-1]
	}
	return docs
}
