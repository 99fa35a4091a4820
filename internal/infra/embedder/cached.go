package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

// Cache stores embeddings by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error
}

// KeyFunc derives a cache key for one text.
type KeyFunc func(text string) string

// CachedEmbedder is a read-through cache in front of another embedder.
// Cache failures are logged and treated as misses.
type CachedEmbedder struct {
	next   faq.Embedder
	cache  Cache
	key    KeyFunc
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedEmbedder wraps next with cache.
func NewCachedEmbedder(next faq.Embedder, cache Cache, key KeyFunc, ttl time.Duration, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		key:    key,
		ttl:    ttl,
		logger: logger.With("component", "embedder.cache"),
	}
}

// Embed serves hits from the cache and embeds only the misses, in one call.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		keys[i] = e.key(text)
		vector, ok, err := e.cache.Get(ctx, keys[i])
		if err != nil {
			e.logger.Warn("embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := e.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
	}
	for j, idx := range missingIdx {
		out[idx] = vectors[j]
		if err := e.cache.Set(ctx, keys[idx], vectors[j], e.ttl); err != nil {
			e.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	e.logger.Debug("embeddings resolved", "hits", len(texts)-len(missing), "misses", len(missing))
	return out, nil
}

var _ faq.Embedder = (*CachedEmbedder)(nil)
