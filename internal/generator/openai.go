package generator

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/54b3r/ragbridge/internal/rag"
)

// OpenAIGenerator implements rag.Generator using the OpenAI chat completions
// API. It is safe for concurrent use.
type OpenAIGenerator struct {
	// client is the OpenAI API client bound to this request's credentials.
	client *openai.Client
	// model is the chat model name (e.g. "gpt-3.5-turbo").
	model string
}

// NewOpenAIGenerator constructs an OpenAIGenerator from per-request credentials.
func NewOpenAIGenerator(creds Credentials) *OpenAIGenerator {
	cfg := openai.DefaultConfig(creds.APIKey)
	if creds.BaseURL != "" {
		cfg.BaseURL = creds.BaseURL
	}
	model := creds.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate sends the RAG prompt to the chat completions endpoint and returns
// the answer text. Remote failures are translated into
// rag.ErrGenerationFailed with the original message preserved; a response
// with no textual content at all is rag.ErrEmptyGeneration.
func (g *OpenAIGenerator) Generate(ctx context.Context, query string, docs []rag.Document) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(query, docs)},
		},
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		return "", rag.WrapError(rag.ErrGenerationFailed, "openai generator", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai generator: %w", rag.ErrEmptyGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}
