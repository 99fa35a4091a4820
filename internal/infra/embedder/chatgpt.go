package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/llm/chatgpt"
)

// maxBatchTokens stays below the provider's 300k per-request cap.
const maxBatchTokens = 200_000

// maxBatchInputs is the provider's per-request input limit.
const maxBatchInputs = 2048

// ChatGPTEmbedder calls the OpenAI-compatible embeddings API.
type ChatGPTEmbedder struct {
	client     *chatgpt.Client
	model      string
	dimensions int
	truncator  *Truncator
	logger     *slog.Logger
}

// NewChatGPTEmbedder constructs an embedder backed by the ChatGPT client.
func NewChatGPTEmbedder(client *chatgpt.Client, model string, dimensions int, truncator *Truncator, logger *slog.Logger) *ChatGPTEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatGPTEmbedder{
		client:     client,
		model:      strings.TrimSpace(model),
		dimensions: dimensions,
		truncator:  truncator,
		logger:     logger.With("component", "embedder.chatgpt"),
	}
}

// Embed requests embeddings for the given texts, splitting them into batches by estimated tokens.
func (e *ChatGPTEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var (
		out         = make([][]float32, 0, len(texts))
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model:      e.model,
			Input:      batch,
			Dimensions: e.dimensions,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(batch) {
			return fmt.Errorf("embedding result count mismatch: expected %d, got %d", len(batch), len(resp.Data))
		}
		for _, item := range resp.Data {
			if e.dimensions > 0 && len(item.Embedding) != e.dimensions {
				return fmt.Errorf("%w: expected %d, got %d", faq.ErrDimensionMismatch, e.dimensions, len(item.Embedding))
			}
			out = append(out, item.Embedding)
		}
		e.logger.Debug("embedding batch done", "inputs", len(batch), "total_tokens", resp.Usage.TotalTokens)
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		text = e.truncator.Truncate(text)
		tokens := e.truncator.Count(text)
		if (batchTokens+tokens > maxBatchTokens || len(batch) >= maxBatchInputs) && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ faq.Embedder = (*ChatGPTEmbedder)(nil)
