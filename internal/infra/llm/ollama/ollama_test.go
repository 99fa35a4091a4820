package ollama

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

type stubGenerator struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (s *stubGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, opt := range options {
		opt(&s.options)
	}
	return s.resp, s.err
}

type stubEmbeddings struct {
	vectors [][]float32
}

func (s stubEmbeddings) CreateEmbedding(context.Context, []string) ([][]float32, error) {
	return s.vectors, nil
}

func TestChat_Complete(t *testing.T) {
	gen := &stubGenerator{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        `{"paraphrases":["a?"]}`,
		GenerationInfo: map[string]any{"PromptTokens": 12, "CompletionTokens": 4, "TotalTokens": 16},
	}}}}
	chat := &Chat{llm: gen}

	resp, err := chat.Complete(context.Background(), faq.CompletionRequest{
		Model:       "llama3",
		Messages:    []faq.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		Temperature: 0.5,
		MaxTokens:   5,
		JSON:        true,
	})
	require.NoError(t, err)
	require.Equal(t, `{"paraphrases":["a?"]}`, resp.Text)
	require.Equal(t, 16, resp.Usage.TotalTokens)

	require.Len(t, gen.messages, 2)
	require.Equal(t, llms.ChatMessageTypeSystem, gen.messages[0].Role)
	require.Equal(t, llms.ChatMessageTypeHuman, gen.messages[1].Role)
	require.True(t, gen.options.JSONMode)
	require.Equal(t, "llama3", gen.options.Model)
	require.Equal(t, 5, gen.options.MaxTokens)
	require.InDelta(t, 0.5, gen.options.Temperature, 1e-6)
}

func TestChat_Errors(t *testing.T) {
	chat := &Chat{llm: &stubGenerator{err: errors.New("connection refused")}}
	_, err := chat.Complete(context.Background(), faq.CompletionRequest{})
	require.Error(t, err)

	chat = &Chat{llm: &stubGenerator{resp: &llms.ContentResponse{}}}
	_, err = chat.Complete(context.Background(), faq.CompletionRequest{})
	require.Error(t, err)
}

func TestEmbedder_CountMismatch(t *testing.T) {
	embedder := &Embedder{llm: stubEmbeddings{vectors: [][]float32{{1}}}}
	_, err := embedder.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	vectors, err := embedder.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1}}, vectors)
}
