package vectorstore

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("", false, 2)
	require.NoError(t, err)
	return store
}

func unit(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestChromemStore_OrphanAndCascade(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertVariant(ctx, faq.FaqVariant{FaqID: 42, Text: "orphan", Embedding: unit(0)})
	require.ErrorIs(t, err, faq.ErrOrphanVariant)

	entry, err := store.InsertEntry(ctx, faq.FaqEntry{Question: "How do I reset my password?", Answer: "Go to Settings > Security.", Embedding: unit(0)})
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ID)

	other, err := store.InsertEntry(ctx, faq.FaqEntry{Question: "How do I delete my account?", Answer: "Contact support.", Embedding: unit(1)})
	require.NoError(t, err)

	for _, text := range []string{"Forgot my password", "Change password"} {
		_, err := store.InsertVariant(ctx, faq.FaqVariant{FaqID: entry.ID, Text: text, Embedding: unit(0.1)})
		require.NoError(t, err)
	}
	_, err = store.InsertVariant(ctx, faq.FaqVariant{FaqID: other.ID, Text: "Remove my account", Embedding: unit(1.1)})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, faq.StoreStats{Entries: 2, Variants: 3}, stats)

	require.NoError(t, store.DeleteEntry(ctx, entry.ID))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, faq.StoreStats{Entries: 1, Variants: 1}, stats)

	require.ErrorIs(t, store.DeleteEntry(ctx, entry.ID), faq.ErrNotFound)
	_, err = store.InsertVariant(ctx, faq.FaqVariant{FaqID: entry.ID, Text: "late", Embedding: unit(0)})
	require.ErrorIs(t, err, faq.ErrOrphanVariant)
}

func TestChromemStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	hits, err := store.SearchPrimary(ctx, unit(0), 5)
	require.NoError(t, err)
	require.Empty(t, hits, "empty collection")

	a, _ := store.InsertEntry(ctx, faq.FaqEntry{Question: "A", Answer: "a", Embedding: unit(0)})
	b, _ := store.InsertEntry(ctx, faq.FaqEntry{Question: "B", Answer: "b", Embedding: unit(math.Pi / 2)})
	_, err = store.InsertVariant(ctx, faq.FaqVariant{FaqID: b.ID, Text: "B variant", Embedding: unit(0.05)})
	require.NoError(t, err)

	hits, err = store.SearchPrimary(ctx, unit(0), 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, a.ID, hits[0].FaqID)
	require.InDelta(t, 1.0, hits[0].Similarity, 1e-5)
	require.Equal(t, faq.MatchSourcePrimary, hits[0].Source)
	require.InDelta(t, 0.0, hits[1].Similarity, 1e-5)
	require.Empty(t, hits[0].MatchedText)

	aliases, err := store.SearchAliases(ctx, unit(0), 10)
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	require.Equal(t, b.ID, aliases[0].FaqID)
	require.Equal(t, "B", aliases[0].Question)
	require.Equal(t, "b", aliases[0].Answer)
	require.Equal(t, "B variant", aliases[0].MatchedText)
	require.Equal(t, faq.MatchSourceAlias, aliases[0].Source)

	opposite, err := store.SearchPrimary(ctx, unit(math.Pi), 1)
	require.NoError(t, err)
	require.Len(t, opposite, 1)
	require.GreaterOrEqual(t, opposite[0].Similarity, 0.0, "negative cosine is clamped")
}

func TestChromemStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertEntry(ctx, faq.FaqEntry{Question: "q", Answer: "a", Embedding: []float32{1, 0, 0}})
	require.ErrorIs(t, err, faq.ErrDimensionMismatch)
	_, err = store.SearchAliases(ctx, []float32{1}, 3)
	require.ErrorIs(t, err, faq.ErrDimensionMismatch)
}

func TestChromemStore_ResetAndPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewChromemStore(dir, true, 2)
	require.NoError(t, err)
	first, err := store.InsertEntry(ctx, faq.FaqEntry{Question: "q1", Answer: "a1", Embedding: unit(0)})
	require.NoError(t, err)
	_, err = store.InsertEntry(ctx, faq.FaqEntry{Question: "q2", Answer: "a2", Embedding: unit(1)})
	require.NoError(t, err)
	_, err = store.InsertVariant(ctx, faq.FaqVariant{FaqID: first.ID, Text: "v", Embedding: unit(0.2)})
	require.NoError(t, err)

	reopened, err := NewChromemStore(dir, true, 2)
	require.NoError(t, err)
	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, faq.StoreStats{Entries: 2, Variants: 1}, stats)

	third, err := reopened.InsertEntry(ctx, faq.FaqEntry{Question: "q3", Answer: "a3", Embedding: unit(2)})
	require.NoError(t, err)
	require.Equal(t, int64(3), third.ID, "ids continue after reopen")

	require.NoError(t, reopened.Reset(ctx))
	stats, err = reopened.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, faq.StoreStats{}, stats)

	again, err := reopened.InsertEntry(ctx, faq.FaqEntry{Question: "q", Answer: "a", Embedding: unit(0)})
	require.NoError(t, err)
	require.Equal(t, int64(1), again.ID)
}

type vectorEmbedder map[string][]float32

func (v vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := v[text]
		if !ok {
			vec = unit(math.Pi / 2)
		}
		out[i] = vec
	}
	return out, nil
}

type topicChat struct {
	topic string
}

func (c topicChat) Complete(_ context.Context, req faq.CompletionRequest) (faq.Completion, error) {
	if req.JSON {
		return faq.Completion{Text: `{"paraphrases": []}`}, nil
	}
	if req.MaxTokens > 0 {
		return faq.Completion{Text: c.topic}, nil
	}
	return faq.Completion{Text: "synthesized"}, nil
}

func TestService_EndToEndWithChromem(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	similarity := 0.9
	embedder := vectorEmbedder{
		"How do I reset my password?":   unit(0),
		"How can I change my password?": unit(math.Acos(similarity)),
	}
	seeder := faq.NewSeeder(store, embedder, topicChat{topic: "IT"}, "gpt-test", logger)
	_, err := seeder.Seed(ctx, []faq.SeedItem{
		{Question: "How do I reset my password?", Answer: "Go to Settings > Security."},
	}, faq.SeedOptions{}, nil)
	require.NoError(t, err)

	t.Run("stored answer above threshold", func(t *testing.T) {
		svc := faq.NewService(faq.Config{}, store, embedder, topicChat{topic: "IT"}, logger)
		resp, err := svc.Answer(ctx, faq.Request{Question: "How can I change my password?"})
		require.NoError(t, err)
		require.Equal(t, faq.AnswerSourceDatabase, resp.Source)
		require.Equal(t, "Go to Settings > Security.", resp.Answer)
		require.InDelta(t, similarity, resp.Confidence, 1e-5)
		require.NotNil(t, resp.MatchedFAQ)
		require.Equal(t, int64(1), resp.MatchedFAQ.FaqID)
	})

	t.Run("general question short-circuits", func(t *testing.T) {
		svc := faq.NewService(faq.Config{}, store, embedder, topicChat{topic: "General"}, logger)
		resp, err := svc.Answer(ctx, faq.Request{Question: "What's the weather today?"})
		require.NoError(t, err)
		require.Equal(t, faq.AnswerSourceLLM, resp.Source)
		require.Equal(t, 1.0, resp.Confidence)
		require.True(t, strings.HasPrefix(resp.Answer, "This is not really what I was trained for"))
		require.Nil(t, resp.GeneratedVariants)
	})
}
