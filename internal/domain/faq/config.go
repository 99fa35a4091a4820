package faq

import "time"

// Config holds runtime knobs for the FAQ service.
type Config struct {
	Model               string
	Temperature         float32
	ConfidenceThreshold float64
	TopK                int
	ContextThreshold    float64
	MaxContext          int
	DefaultVariants     int
	VariantTemperature  float32
	ClassifyTimeout     time.Duration
	VariantTimeout      time.Duration
	SearchConcurrency   int
	GeneralAnswer       string
	ErrorAnswer         string
	FallbackAnswer      string
}

const (
	defaultGeneralAnswer  = "This is not really what I was trained for, therefore I cannot answer. Try again."
	defaultErrorAnswer    = "I apologize, but I encountered an error processing your question. Please try again."
	defaultFallbackAnswer = "I apologize, but I'm unable to generate an answer at this time. Please try rephrasing your question or contact support."

	defaultTopK              = 5
	maxQuestionLength        = 500
	minVariants, maxVariants = 1, 10
	maxRequestVariants       = 5
)

// withDefaults fills zero values so partially populated configs (tests, tools) behave sensibly.
func (c Config) withDefaults() Config {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.75
	}
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.ContextThreshold <= 0 {
		c.ContextThreshold = 0.5
	}
	if c.MaxContext <= 0 {
		c.MaxContext = 3
	}
	if c.DefaultVariants <= 0 {
		c.DefaultVariants = 3
	}
	if c.VariantTemperature <= 0 {
		c.VariantTemperature = 0.7
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.ClassifyTimeout <= 0 {
		c.ClassifyTimeout = 10 * time.Second
	}
	if c.VariantTimeout <= 0 {
		c.VariantTimeout = 15 * time.Second
	}
	if c.SearchConcurrency <= 0 {
		c.SearchConcurrency = 8
	}
	if c.GeneralAnswer == "" {
		c.GeneralAnswer = defaultGeneralAnswer
	}
	if c.ErrorAnswer == "" {
		c.ErrorAnswer = defaultErrorAnswer
	}
	if c.FallbackAnswer == "" {
		c.FallbackAnswer = defaultFallbackAnswer
	}
	return c
}
