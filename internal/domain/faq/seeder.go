package faq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/yanqian/faq-rag/pkg/errors"
)

// SeedItem is one FAQ in a seed dataset.
type SeedItem struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Progress receives seeding progress, one increment per FAQ.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

// SeedOptions tunes a seeding run.
type SeedOptions struct {
	VariantsPerFAQ     int
	VariantTemperature float32
	Reset              bool
	Concurrency        int
}

// SeedReport summarises a seeding run.
type SeedReport struct {
	Entries        int
	Variants       int
	FailedVariants int
	Stats          StoreStats
}

// AverageVariants is variants per stored entry.
func (r SeedReport) AverageVariants() float64 {
	if r.Stats.Entries == 0 {
		return 0
	}
	return float64(r.Stats.Variants) / float64(r.Stats.Entries)
}

// Seeder populates the vector store with entries and generated variants.
type Seeder struct {
	store     VectorStore
	embedder  Embedder
	variants  *VariantGenerator
	retrieval *RetrievalEngine
	logger    *slog.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(store VectorStore, embedder Embedder, client ChatClient, model string, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:     store,
		embedder:  embedder,
		variants:  NewVariantGenerator(client, model, logger),
		retrieval: NewRetrievalEngine(store, embedder, 4, logger),
		logger:    logger.With("component", "faq.seeder"),
	}
}

// Seed embeds and inserts every item, then generates, embeds and inserts variants for each.
// Failures on individual variants are logged and skipped; failures on entries abort the run.
func (s *Seeder) Seed(ctx context.Context, items []SeedItem, opts SeedOptions, progress Progress) (SeedReport, error) {
	items = cleanSeedItems(items)
	if len(items) == 0 {
		return SeedReport{}, apperrors.Wrap("seed_error", "seed dataset is empty", nil)
	}
	if opts.VariantsPerFAQ < 0 {
		opts.VariantsPerFAQ = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.VariantTemperature <= 0 {
		opts.VariantTemperature = 0.7
	}

	if opts.Reset {
		if err := s.store.Reset(ctx); err != nil {
			return SeedReport{}, apperrors.Wrap("seed_error", "reset store", err)
		}
		s.logger.Info("existing faq data cleared")
	}

	questions := make([]string, len(items))
	for i, item := range items {
		questions[i] = item.Question
	}
	s.logger.Info("embedding faqs", "count", len(items))
	embeddings, err := s.embedder.Embed(ctx, questions)
	if err != nil {
		return SeedReport{}, apperrors.Wrap("seed_error", "embed faq questions", err)
	}
	if len(embeddings) != len(items) {
		return SeedReport{}, apperrors.Wrap("seed_error", "embed faq questions", fmt.Errorf("got %d vectors for %d questions", len(embeddings), len(items)))
	}

	entries := make([]FaqEntry, 0, len(items))
	for i, item := range items {
		entry, err := s.store.InsertEntry(ctx, FaqEntry{Question: item.Question, Answer: item.Answer, Embedding: embeddings[i]})
		if err != nil {
			return SeedReport{}, apperrors.Wrap("seed_error", fmt.Sprintf("insert faq %q", item.Question), err)
		}
		entries = append(entries, entry)
	}
	s.logger.Info("faqs inserted", "count", len(entries))

	report := SeedReport{Entries: len(entries)}
	if opts.VariantsPerFAQ > 0 {
		inserted, failed, err := s.seedVariants(ctx, entries, opts, progress)
		if err != nil {
			return report, err
		}
		report.Variants = inserted
		report.FailedVariants = failed
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return report, apperrors.Wrap("seed_error", "verify seeded counts", err)
	}
	report.Stats = stats
	s.logger.Info("seeding verified",
		"faqs", stats.Entries,
		"variants", stats.Variants,
		"avg_variants_per_faq", fmt.Sprintf("%.2f", report.AverageVariants()),
	)
	return report, nil
}

func (s *Seeder) seedVariants(ctx context.Context, entries []FaqEntry, opts SeedOptions, progress Progress) (int, int, error) {
	if progress == nil {
		progress = noopProgress{}
	}
	progress.Start(len(entries))
	defer progress.Finish()

	var (
		mu       sync.Mutex
		inserted int
		failed   int
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for _, entry := range entries {
		group.Go(func() error {
			defer progress.Increment()
			ok, bad, err := s.seedEntryVariants(groupCtx, entry, opts)
			mu.Lock()
			inserted += ok
			failed += bad
			mu.Unlock()
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return inserted, failed, apperrors.Wrap("seed_error", "seed variants", err)
	}
	s.logger.Info("variants inserted", "count", inserted, "failed", failed)
	return inserted, failed, nil
}

// seedEntryVariants only returns an error when the context is done.
func (s *Seeder) seedEntryVariants(ctx context.Context, entry FaqEntry, opts SeedOptions) (int, int, error) {
	logger := s.logger.With("faq_id", entry.ID)
	variants := s.variants.Generate(ctx, entry.Question, opts.VariantsPerFAQ, opts.VariantTemperature)
	if len(variants) == 0 {
		logger.Warn("no variants generated")
		return 0, 0, ctx.Err()
	}
	embeddings, err := s.embedder.Embed(ctx, variants)
	if err != nil || len(embeddings) != len(variants) {
		if err == nil {
			err = errors.New("embedding count mismatch")
		}
		logger.Error("embed variants failed", "error", err)
		return 0, len(variants), ctx.Err()
	}
	inserted, failed := 0, 0
	for i, text := range variants {
		if _, err := s.store.InsertVariant(ctx, FaqVariant{FaqID: entry.ID, Text: text, Embedding: embeddings[i]}); err != nil {
			logger.Error("insert variant failed", "variant", text, "error", err)
			failed++
			continue
		}
		inserted++
	}
	return inserted, failed, ctx.Err()
}

// Probe runs a similarity search for query and returns the ranked matches.
func (s *Seeder) Probe(ctx context.Context, query string, topK int) ([]MatchCandidate, error) {
	matches, _, err := s.retrieval.SearchWithMetadata(ctx, query, nil, topK)
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		s.logger.Info("probe match", "rank", i+1, "similarity", fmt.Sprintf("%.4f", m.Similarity), "source", m.Source, "question", m.Question)
	}
	return matches, nil
}

func cleanSeedItems(items []SeedItem) []SeedItem {
	out := make([]SeedItem, 0, len(items))
	for _, item := range items {
		item.Question = strings.TrimSpace(item.Question)
		item.Answer = strings.TrimSpace(item.Answer)
		if item.Question == "" || item.Answer == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

type noopProgress struct{}

func (noopProgress) Start(int)  {}
func (noopProgress) Increment() {}
func (noopProgress) Finish()    {}
