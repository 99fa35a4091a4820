package faq

import (
	"strings"
	"unicode"
)

const variantQuoteChars = `"'`

// cleanVariant collapses whitespace, trims and strips wrapping quotes.
func cleanVariant(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				builder.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		builder.WriteRune(r)
		lastSpace = false
	}
	cleaned := strings.TrimSpace(builder.String())
	cleaned = strings.Trim(cleaned, variantQuoteChars)
	return strings.TrimSpace(cleaned)
}

// normalizeVariants cleans items, drops empties and case-insensitive duplicates, and caps at limit.
func normalizeVariants(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		cleaned := cleanVariant(item)
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
