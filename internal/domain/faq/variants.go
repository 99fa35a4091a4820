package faq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

type parseKind int

const (
	parseUnparseable parseKind = iota
	parseParsed
)

// variantParse is the outcome of reading model output: either a list or nothing usable.
type variantParse struct {
	kind  parseKind
	items []string
}

func parsed(items []string) variantParse { return variantParse{kind: parseParsed, items: items} }

var unparseable = variantParse{kind: parseUnparseable}

var bracketArray = regexp.MustCompile(`\[[\s\S]*?]`)

// VariantGenerator produces paraphrases of a question through the chat model.
type VariantGenerator struct {
	client ChatClient
	model  string
	logger *slog.Logger
}

// NewVariantGenerator constructs the generator.
func NewVariantGenerator(client ChatClient, model string, logger *slog.Logger) *VariantGenerator {
	return &VariantGenerator{
		client: client,
		model:  model,
		logger: logger.With("component", "faq.variants"),
	}
}

// Generate returns at most clamp(n, 1, 10) distinct paraphrases of text.
// It never fails: model errors and unreadable output yield fewer, possibly zero, variants.
func (g *VariantGenerator) Generate(ctx context.Context, text string, n int, temperature float32) []string {
	variants, _ := g.generate(ctx, text, n, temperature)
	return variants
}

func (g *VariantGenerator) generate(ctx context.Context, text string, n int, temperature float32) ([]string, Completion) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, Completion{}
	}
	n = clampInt(n, minVariants, maxVariants)
	temperature = clampFloat32(temperature, 0, 1)

	resp, err := g.client.Complete(ctx, CompletionRequest{
		Model: g.model,
		Messages: []Message{
			{Role: "system", Content: fmt.Sprintf(variantSystemTemplate, n)},
			{Role: "user", Content: fmt.Sprintf(variantUserTemplate, n, text)},
		},
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		g.logger.Warn("variant generation failed", "error", err)
		return []string{}, Completion{}
	}

	result := parseVariantOutput(resp.Text)
	if result.kind == parseUnparseable {
		g.logger.Warn("variant output unparseable", "output_len", len(resp.Text))
		return []string{}, resp
	}
	return normalizeVariants(result.items, n), resp
}

// parseVariantOutput reads a paraphrase list from raw model output.
func parseVariantOutput(raw string) variantParse {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unparseable
	}
	if res := parseVariantJSON(raw); res.kind == parseParsed {
		return res
	}
	if match := bracketArray.FindString(raw); match != "" {
		var items []string
		if err := json.Unmarshal([]byte(match), &items); err == nil {
			return parsed(items)
		}
	}
	return unparseable
}

func parseVariantJSON(raw string) variantParse {
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &object); err == nil {
		for _, key := range []string{"paraphrases", "data"} {
			payload, ok := object[key]
			if !ok {
				continue
			}
			var items []string
			if err := json.Unmarshal(payload, &items); err == nil {
				return parsed(items)
			}
		}
		return unparseable
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return parsed(items)
	}
	return unparseable
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat32(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
