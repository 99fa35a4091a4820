package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/yanqian/faq-rag/internal/bootstrap"
	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/config"
	"github.com/yanqian/faq-rag/internal/infra/seeddata"
	"github.com/yanqian/faq-rag/pkg/logger"
)

const probeQuestion = "How can I change my password?"

type options struct {
	file     string
	variants int
	reset    bool
	publish  bool
	fromFile bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	opts := options{}
	flag.StringVar(&opts.file, "file", cfg.Seed.File, "path to the FAQ dataset (yaml or json)")
	flag.IntVar(&opts.variants, "variants", cfg.Seed.VariantsPerFAQ, "variants to generate per FAQ (0 disables)")
	flag.BoolVar(&opts.reset, "reset", cfg.Seed.Reset, "delete existing FAQs and variants first")
	flag.BoolVar(&opts.publish, "publish", false, "upload -file to the configured object storage key and exit")
	flag.BoolVar(&opts.fromFile, "local", false, "read -file even when object storage is configured")
	flag.Parse()

	baseLogger := logger.New().With("run_id", uuid.NewString())
	if err := run(ctx, cfg, opts, baseLogger.With("component", "seed")); err != nil {
		baseLogger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	if opts.publish {
		return publish(ctx, cfg, opts.file, logger)
	}

	source, err := selectSource(cfg, opts, logger)
	if err != nil {
		return err
	}
	items, err := source.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("seed dataset loaded", "source", source.Name(), "faqs", len(items))

	store, closeStore, err := bootstrap.ProvideVectorStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if _, err := store.Stats(ctx); err != nil {
		return fmt.Errorf("vector store unreachable: %w", err)
	}

	client := bootstrap.ProvideChatGPTClient(cfg, logger)
	chat, err := bootstrap.ProvideChatClient(cfg, client, logger)
	if err != nil {
		return err
	}
	cache, closeCache := bootstrap.ProvideEmbeddingCache(cfg, logger)
	defer closeCache()
	embedder, err := bootstrap.ProvideEmbedder(cfg, client, cache, logger)
	if err != nil {
		return err
	}

	seeder := faq.NewSeeder(store, embedder, chat, cfg.LLM.Model, logger)
	report, err := seeder.Seed(ctx, items, faq.SeedOptions{
		VariantsPerFAQ:     opts.variants,
		VariantTemperature: cfg.FAQ.VariantTemperature,
		Reset:              opts.reset,
		Concurrency:        cfg.Seed.Concurrency,
	}, newProgress())
	if err != nil {
		return err
	}
	logger.Info("seeding complete",
		"inserted_faqs", report.Entries,
		"inserted_variants", report.Variants,
		"failed_variants", report.FailedVariants,
		"total_faqs", report.Stats.Entries,
		"total_variants", report.Stats.Variants,
	)

	if _, err := seeder.Probe(ctx, probeQuestion, 3); err != nil {
		logger.Warn("probe search failed", "question", probeQuestion, "error", err)
	}
	return nil
}

func selectSource(cfg *config.Config, opts options, logger *slog.Logger) (seeddata.Source, error) {
	if opts.fromFile || !cfg.Seed.Object.Enabled() {
		return seeddata.NewFileSource(opts.file), nil
	}
	return newObjectSource(cfg, logger)
}

func publish(ctx context.Context, cfg *config.Config, file string, logger *slog.Logger) error {
	if !cfg.Seed.Object.Enabled() {
		return errors.New("object storage is not configured, set SEED_OBJECT_BUCKET and SEED_OBJECT_KEY")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	source, err := newObjectSource(cfg, logger)
	if err != nil {
		return err
	}
	return source.Publish(ctx, data)
}

func newObjectSource(cfg *config.Config, logger *slog.Logger) (*seeddata.ObjectSource, error) {
	obj := cfg.Seed.Object
	return seeddata.NewObjectSource(seeddata.ObjectOptions{
		Endpoint:  obj.Endpoint,
		AccessKey: obj.AccessKey,
		SecretKey: obj.SecretKey,
		Bucket:    obj.Bucket,
		Key:       obj.Key,
		Region:    obj.Region,
		UseSSL:    obj.UseSSL,
	}, logger)
}
