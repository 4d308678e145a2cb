package vectorstore

import (
	"github.com/54b3r/ragbridge/internal/rag"
)

// placeholderDocuments returns the fixed degraded-mode document set for a
// recognized provider. Every set is non-empty and tagged with a "source"
// metadata value containing "demo" so callers can detect degradation. The
// content, scores, and tags are stable — tests and downstream consumers rely
// on them.
func placeholderDocuments(provider string) []rag.Document {
	switch provider {
	case "qdrant":
		return []rag.Document{
			{
				Title:    "Qdrant Sample Document",
				Content:  "This is a sample document from Qdrant vector database.",
				Score:    0.92,
				Metadata: map[string]any{"source": "qdrant_demo"},
			},
		}
	case "weaviate":
		return []rag.Document{
			{
				Title:    "Weaviate Sample Document",
				Content:  "This is a sample document from Weaviate vector database.",
				Score:    0.89,
				Metadata: map[string]any{"source": "weaviate_demo"},
			},
		}
	default:
		return []rag.Document{
			{
				Title:    "Sample Document 1",
				Content:  "This is a sample document content that would normally come from your vector database.",
				Score:    0.95,
				Metadata: map[string]any{"source": "demo"},
			},
			{
				Title:    "Sample Document 2",
				Content:  "Another sample document showing how RAG retrieval works with context.",
				Score:    0.87,
				Metadata: map[string]any{"source": "demo"},
			},
		}
	}
}
