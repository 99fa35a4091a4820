package embedder

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Truncator clips embedding inputs to the model's token budget.
// The zero value and a nil *Truncator pass text through unchanged.
type Truncator struct {
	model     string
	maxTokens int
	logger    *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTruncator builds a truncator for model. The BPE ranks are loaded on first use;
// if they cannot be loaded, token counts fall back to an estimate.
func NewTruncator(model string, maxTokens int, logger *slog.Logger) *Truncator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Truncator{model: model, maxTokens: maxTokens, logger: logger.With("component", "embedder.truncator")}
}

func (t *Truncator) encoding() *tiktoken.Tiktoken {
	t.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(t.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		}
		if err != nil {
			t.logger.Warn("tokenizer unavailable, estimating token counts", "model", t.model, "error", err)
			return
		}
		t.enc = enc
	})
	return t.enc
}

// Count returns the number of tokens in text.
func (t *Truncator) Count(text string) int {
	if t == nil {
		return estimateTokens(text)
	}
	if enc := t.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// Truncate returns text clipped to at most maxTokens tokens.
func (t *Truncator) Truncate(text string) string {
	if t == nil || t.maxTokens <= 0 {
		return text
	}
	enc := t.encoding()
	if enc == nil {
		return truncateEstimated(text, t.maxTokens)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text
	}
	t.logger.Warn("embedding input truncated", "tokens", len(tokens), "max_tokens", t.maxTokens)
	return enc.Decode(tokens[:t.maxTokens])
}

// estimateTokens provides a rough, upper-biased token count without a tokenizer.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}

func truncateEstimated(text string, maxTokens int) string {
	if estimateTokens(text) <= maxTokens {
		return text
	}
	runes := []rune(text)
	limit := min(len(runes), maxTokens*2)
	for limit > 0 && estimateTokens(string(runes[:limit])) > maxTokens {
		limit--
	}
	return string(runes[:limit])
}
