package faq

import (
	"context"
	"fmt"
	"strings"
)

// TopicClassifier labels a question as IT, Chat or General.
type TopicClassifier struct {
	client ChatClient
	model  string
}

// NewTopicClassifier constructs the classifier.
func NewTopicClassifier(client ChatClient, model string) *TopicClassifier {
	return &TopicClassifier{client: client, model: model}
}

// Classify asks the model for a label. Unknown output maps to IT so retrieval still runs.
func (c *TopicClassifier) Classify(ctx context.Context, question string) (Topic, Completion, error) {
	resp, err := c.client.Complete(ctx, CompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: routerSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(routerUserTemplate, question)},
		},
		MaxTokens: 5,
	})
	if err != nil {
		return "", Completion{}, err
	}
	return parseTopic(resp.Text), resp, nil
}

func parseTopic(label string) Topic {
	lowered := strings.ToLower(label)
	switch {
	case strings.Contains(lowered, "general"):
		return TopicGeneral
	case strings.Contains(lowered, "chat"):
		return TopicChat
	default:
		return TopicIT
	}
}
