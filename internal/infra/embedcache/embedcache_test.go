package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("text-embedding-3-small", 1536, "How do I reset my password?")
	require.Equal(t, a, Key("text-embedding-3-small", 1536, "How do I reset my password?"))
	require.NotEqual(t, a, Key("text-embedding-3-large", 1536, "How do I reset my password?"))
	require.NotEqual(t, a, Key("text-embedding-3-small", 768, "How do I reset my password?"))
	require.NotEqual(t, a, Key("text-embedding-3-small", 1536, "How do I reset my password"))
	require.Contains(t, a, "text-embedding-3-small:1536:")
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	vector := []float32{0.1, 0.2}
	require.NoError(t, cache.Set(ctx, "k", vector, 0))
	vector[0] = 9

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{0.1, 0.2}, got)
	require.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Set(ctx, "short", vector, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, _ = cache.Get(ctx, "short")
	require.False(t, ok)
}
