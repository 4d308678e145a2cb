package generator

import (
	"fmt"
	"strings"

	"github.com/54b3r/ragbridge/internal/budget"
	"github.com/54b3r/ragbridge/internal/rag"
)

// maxContextDocs is the number of retrieved documents included in the prompt.
// Documents beyond the first three are dropped; the order search returned
// them in is preserved — no re-sorting.
const maxContextDocs = 3

// systemPrompt is the fixed system message sent with every generation call.
const systemPrompt = "You are a helpful AI assistant that answers questions based on provided context."

// BuildPrompt renders the RAG prompt: a fixed instruction preamble, a context
// block of at most maxContextDocs documents (title + content each), and the
// literal user query.
func BuildPrompt(query string, docs []rag.Document) string {
	if len(docs) > maxContextDocs {
		docs = docs[:maxContextDocs]
	}
	// Oversized documents can still blow the context window even at three
	// blocks; trim from the tail until the estimate fits.
	docs = budget.TrimDocuments(query, docs, budget.DefaultMaxContextTokens)

	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s", d.Title, d.Content))
	}
	context := strings.Join(blocks, "\n\n")

	return fmt.Sprintf(`You are a helpful AI assistant. Use the following context to answer the user's question. If the context doesn't contain relevant information, say so clearly.

Context:
%s

Question: %s

Answer:`, context, query)
}
