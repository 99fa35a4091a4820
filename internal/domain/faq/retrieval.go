package faq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/yanqian/faq-rag/pkg/errors"
)

// RetrievalEngine searches both collections for every query vector and merges the hits.
type RetrievalEngine struct {
	store       VectorStore
	embedder    Embedder
	concurrency int
	logger      *slog.Logger
}

// NewRetrievalEngine constructs the engine. concurrency bounds parallel sub-searches.
func NewRetrievalEngine(store VectorStore, embedder Embedder, concurrency int, logger *slog.Logger) *RetrievalEngine {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &RetrievalEngine{
		store:       store,
		embedder:    embedder,
		concurrency: concurrency,
		logger:      logger.With("component", "faq.retrieval"),
	}
}

// Search runs one primary and one alias search per embedding and returns at most topK
// candidates, one per FAQ, ranked by similarity. Failing sub-searches count as empty.
func (e *RetrievalEngine) Search(ctx context.Context, queryEmbeddings [][]float32, topK int) []MatchCandidate {
	if topK <= 0 {
		topK = defaultTopK
	}
	if len(queryEmbeddings) == 0 {
		return []MatchCandidate{}
	}

	// slots[2*i] holds primary hits for query i, slots[2*i+1] alias hits.
	slots := make([][]MatchCandidate, 2*len(queryEmbeddings))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for i, embedding := range queryEmbeddings {
		group.Go(func() error {
			slots[2*i] = e.subSearch(groupCtx, MatchSourcePrimary, i, func(ctx context.Context) ([]MatchCandidate, error) {
				return e.store.SearchPrimary(ctx, embedding, topK)
			})
			return nil
		})
		group.Go(func() error {
			slots[2*i+1] = e.subSearch(groupCtx, MatchSourceAlias, i, func(ctx context.Context) ([]MatchCandidate, error) {
				return e.store.SearchAliases(ctx, embedding, topK)
			})
			return nil
		})
	}
	_ = group.Wait()

	return rankCandidates(mergeCandidates(slots...), topK)
}

func (e *RetrievalEngine) subSearch(ctx context.Context, source MatchSource, query int, search func(context.Context) ([]MatchCandidate, error)) []MatchCandidate {
	hits, err := search(ctx)
	if err != nil {
		e.logger.Warn("sub-search failed, ignoring", "collection", source, "query_index", query, "error", err)
		return nil
	}
	for i := range hits {
		hits[i].Source = source
		hits[i].Similarity = ClampSimilarity(hits[i].Similarity)
		if source == MatchSourcePrimary {
			hits[i].MatchedText = ""
		}
	}
	return hits
}

// SearchWithMetadata embeds the question and its variants, then searches.
// Only a failure to embed the question itself is returned; variant embedding failures
// drop the variants.
func (e *RetrievalEngine) SearchWithMetadata(ctx context.Context, userQuery string, variants []string, topK int) ([]MatchCandidate, QueryVariantSet, error) {
	set := QueryVariantSet{Original: userQuery, Variants: variants}
	embeddings, err := e.embedder.Embed(ctx, set.Texts())
	if err != nil || len(embeddings) != len(variants)+1 {
		if err == nil {
			err = fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(variants)+1)
		}
		if len(variants) == 0 {
			return nil, set, apperrors.Wrap("faq_error", "embed question failed", err)
		}
		e.logger.Warn("batch embedding failed, retrying question alone", "error", err)
		set.Variants = []string{}
		embeddings, err = e.embedder.Embed(ctx, []string{userQuery})
		if err == nil && len(embeddings) != 1 {
			err = errors.New("embedder returned no vector for question")
		}
		if err != nil {
			return nil, set, apperrors.Wrap("faq_error", "embed question failed", err)
		}
	}
	set.Embeddings = embeddings
	return e.Search(ctx, set.Embeddings, topK), set, nil
}

// mergeCandidates walks the result streams in order and keeps the best-scoring
// candidate per FAQ. On equal similarity the first one seen wins.
func mergeCandidates(streams ...[]MatchCandidate) []MatchCandidate {
	index := make(map[int64]int)
	merged := make([]MatchCandidate, 0)
	for _, stream := range streams {
		for _, candidate := range stream {
			pos, seen := index[candidate.FaqID]
			if !seen {
				index[candidate.FaqID] = len(merged)
				merged = append(merged, candidate)
				continue
			}
			if candidate.Similarity > merged[pos].Similarity {
				merged[pos] = candidate
			}
		}
	}
	return merged
}

// rankCandidates sorts by descending similarity, keeping first-seen order for ties,
// and truncates to topK.
func rankCandidates(candidates []MatchCandidate, topK int) []MatchCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
