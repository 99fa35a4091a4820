package llm

import (
	"context"
	"errors"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/llm/chatgpt"
	"github.com/yanqian/faq-rag/pkg/metrics"
)

// ErrNoChatModel is returned by OfflineChat for every call.
var ErrNoChatModel = errors.New("no chat model configured")

// ChatGPTChat adapts the ChatGPT client to the FAQ domain.
type ChatGPTChat struct {
	client *chatgpt.Client
}

// NewChatGPTChat constructs the adapter.
func NewChatGPTChat(client *chatgpt.Client) *ChatGPTChat {
	return &ChatGPTChat{client: client}
}

// Complete sends a chat completion request.
func (c *ChatGPTChat) Complete(ctx context.Context, req faq.CompletionRequest) (faq.Completion, error) {
	payload := chatgpt.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatgpt.Message, 0, len(req.Messages)),
	}
	if req.JSON {
		payload.ResponseFormat = chatgpt.JSONObject
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, chatgpt.Message{Role: msg.Role, Content: msg.Content})
	}
	resp, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return faq.Completion{}, err
	}
	return faq.Completion{
		Text: resp.Content(),
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ faq.ChatClient = (*ChatGPTChat)(nil)

// OfflineChat fails every call, so classification falls through to retrieval
// and synthesis returns the fallback answer.
type OfflineChat struct{}

// Complete always returns ErrNoChatModel.
func (OfflineChat) Complete(context.Context, faq.CompletionRequest) (faq.Completion, error) {
	return faq.Completion{}, ErrNoChatModel
}

var _ faq.ChatClient = OfflineChat{}
