package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/yanqian/faq-rag/pkg/errors"
)

// ContextPair is one FAQ handed to grounded synthesis.
type ContextPair struct {
	Question string
	Answer   string
}

// AnswerSynthesizer generates answers with or without retrieved context.
type AnswerSynthesizer struct {
	client      ChatClient
	model       string
	temperature float32
}

// NewAnswerSynthesizer constructs the synthesizer.
func NewAnswerSynthesizer(client ChatClient, model string, temperature float32) *AnswerSynthesizer {
	return &AnswerSynthesizer{client: client, model: model, temperature: temperature}
}

// Grounded answers using the given FAQ context.
func (s *AnswerSynthesizer) Grounded(ctx context.Context, question string, pairs []ContextPair) (Completion, error) {
	return s.complete(ctx, groundedSystemPrompt, fmt.Sprintf(groundedUserTemplate, buildContext(pairs), question))
}

// Ungrounded answers from the model's general knowledge.
func (s *AnswerSynthesizer) Ungrounded(ctx context.Context, question string) (Completion, error) {
	return s.complete(ctx, ungroundedSystemPrompt, fmt.Sprintf(ungroundedUserTemplate, question))
}

func (s *AnswerSynthesizer) complete(ctx context.Context, system, user string) (Completion, error) {
	resp, err := s.client.Complete(ctx, CompletionRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return Completion{}, apperrors.Wrap("llm_error", "answer synthesis failed", err)
	}
	resp.Text = strings.TrimSpace(resp.Text)
	if resp.Text == "" {
		return resp, apperrors.Wrap("llm_error", "answer synthesis returned empty text", errors.New("empty completion"))
	}
	return resp, nil
}

func buildContext(pairs []ContextPair) string {
	parts := make([]string, 0, len(pairs))
	for i, pair := range pairs {
		parts = append(parts, fmt.Sprintf("FAQ %d:\nQ: %s\nA: %s\n", i+1, pair.Question, pair.Answer))
	}
	return strings.Join(parts, "\n")
}

// selectContext keeps candidates at or above threshold, up to limit, in ranked order.
func selectContext(matches []MatchCandidate, threshold float64, limit int) []ContextPair {
	out := make([]ContextPair, 0, limit)
	for _, m := range matches {
		if len(out) >= limit {
			break
		}
		if m.Similarity >= threshold {
			out = append(out, ContextPair{Question: m.Question, Answer: m.Answer})
		}
	}
	return out
}
