package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/pkg/metrics"
)

// generator is the subset of the langchaingo ollama client the adapters use.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type embeddingCreator interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// Chat runs completions against a local Ollama server.
type Chat struct {
	llm generator
}

// NewChat connects to the Ollama server at serverURL using model.
func NewChat(serverURL, model string) (*Chat, error) {
	client, err := lcollama.New(lcollama.WithServerURL(serverURL), lcollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama chat client: %w", err)
	}
	return &Chat{llm: client}, nil
}

// Complete sends the conversation to Ollama.
func (c *Chat) Complete(ctx context.Context, req faq.CompletionRequest) (faq.Completion, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(roleOf(msg.Role), msg.Content))
	}
	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return faq.Completion{}, fmt.Errorf("ollama generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return faq.Completion{}, errors.New("ollama returned no choices")
	}
	choice := resp.Choices[0]
	return faq.Completion{Text: choice.Content, Usage: usageOf(choice.GenerationInfo)}, nil
}

func roleOf(role string) llms.ChatMessageType {
	switch strings.ToLower(role) {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func usageOf(info map[string]any) metrics.TokenUsage {
	count := func(key string) int {
		if v, ok := info[key].(int); ok {
			return v
		}
		return 0
	}
	return metrics.TokenUsage{
		PromptTokens:     count("PromptTokens"),
		CompletionTokens: count("CompletionTokens"),
		TotalTokens:      count("TotalTokens"),
	}
}

var _ faq.ChatClient = (*Chat)(nil)

// Embedder embeds texts with an Ollama embedding model.
type Embedder struct {
	llm embeddingCreator
}

// NewEmbedder connects to the Ollama server at serverURL using the embedding model.
func NewEmbedder(serverURL, model string) (*Embedder, error) {
	client, err := lcollama.New(lcollama.WithServerURL(serverURL), lcollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama embedding client: %w", err)
	}
	return &Embedder{llm: client}, nil
}

// Embed returns one vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

var _ faq.Embedder = (*Embedder)(nil)
