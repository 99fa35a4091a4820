package faq

import (
	"context"

	"github.com/yanqian/faq-rag/pkg/metrics"
)

// Embedder turns texts into fixed-length vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest asks the chat model for one completion.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// Completion is the model output plus token accounting.
type Completion struct {
	Text  string
	Usage metrics.TokenUsage
}

// ChatClient is the generative model used for classification, variants and synthesis.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
