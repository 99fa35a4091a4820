package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/embedcache"
	"github.com/yanqian/faq-rag/internal/infra/llm/chatgpt"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), texts...))
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]float32, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []float32, time.Duration) error {
	return errors.New("cache down")
}

func TestCachedEmbedder(t *testing.T) {
	next := &countingEmbedder{}
	key := func(text string) string { return embedcache.Key("m", 1, text) }
	cached := NewCachedEmbedder(next, embedcache.NewMemoryCache(time.Hour), key, time.Hour, newTestLogger())
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1}, {2}}, first)

	second, err := cached.Embed(ctx, []string{"ccc", "a", "bb"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{3}, {1}, {2}}, second)
	require.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, next.calls)

	_, err = cached.Embed(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, next.calls, 2, "full hit makes no upstream call")
}

func TestCachedEmbedder_DegradesWithBrokenCache(t *testing.T) {
	next := &countingEmbedder{}
	cached := NewCachedEmbedder(next, failingCache{}, func(s string) string { return s }, 0, newTestLogger())

	got, err := cached.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{3}}, got)

	next.err = errors.New("upstream down")
	_, err = cached.Embed(context.Background(), []string{"abc"})
	require.Error(t, err)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / math.Sqrt(na*nb)
}

func TestDeterministicEmbedder(t *testing.T) {
	e := NewDeterministicEmbedder(64)
	vectors, err := e.Embed(context.Background(), []string{
		"How do I reset my password?",
		"how do i reset my PASSWORD",
		"What is the refund policy?",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 4)
	for _, v := range vectors {
		require.Len(t, v, 64)
		require.InDelta(t, 1.0, cosine(v, v), 1e-5)
	}
	require.InDelta(t, 1.0, cosine(vectors[0], vectors[1]), 1e-5)
	require.Less(t, cosine(vectors[0], vectors[2]), cosine(vectors[0], vectors[1]))
}

func TestTruncator_NilAndEstimate(t *testing.T) {
	var nilTruncator *Truncator
	require.Equal(t, "unchanged", nilTruncator.Truncate("unchanged"))
	require.Equal(t, 3, nilTruncator.Count("hello"))

	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 4, estimateTokens("a b c d"))

	long := strings.Repeat("abcd ", 100)
	clipped := truncateEstimated(long, 10)
	require.LessOrEqual(t, estimateTokens(clipped), 10)
	require.True(t, strings.HasPrefix(long, clipped))
	require.Equal(t, "short", truncateEstimated("short", 10))
}

func TestChatGPTEmbedder(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req chatgpt.EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		data := make([]string, len(req.Input))
		for i := range req.Input {
			data[i] = fmt.Sprintf(`{"index":%d,"embedding":[%d,0]}`, i, i+1)
		}
		if strings.HasPrefix(req.Input[0], "short") {
			data = data[:1]
			data[0] = `{"index":0,"embedding":[1]}`
		}
		_, _ = w.Write([]byte(`{"data":[` + strings.Join(data, ",") + `]}`))
	}))
	defer srv.Close()

	client, err := chatgpt.NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)
	e := NewChatGPTEmbedder(client, "text-embedding-3-small", 2, nil, newTestLogger())

	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {2, 0}}, vectors)
	require.Equal(t, 1, requests)

	_, err = e.Embed(context.Background(), []string{"short vector"})
	require.ErrorIs(t, err, faq.ErrDimensionMismatch)

	empty, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
	require.Equal(t, 2, requests)
}
