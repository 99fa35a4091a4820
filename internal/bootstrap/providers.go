package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/config"
	"github.com/yanqian/faq-rag/internal/infra/embedcache"
	"github.com/yanqian/faq-rag/internal/infra/embedder"
	"github.com/yanqian/faq-rag/internal/infra/llm"
	"github.com/yanqian/faq-rag/internal/infra/llm/chatgpt"
	"github.com/yanqian/faq-rag/internal/infra/llm/ollama"
	"github.com/yanqian/faq-rag/internal/infra/vectorstore"
)

const defaultOllamaURL = "http://localhost:11434"

// ProvideFAQConfig maps file/env configuration onto the domain config.
func ProvideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		Model:               cfg.LLM.Model,
		Temperature:         cfg.LLM.Temperature,
		ConfidenceThreshold: cfg.FAQ.ConfidenceThreshold,
		TopK:                cfg.FAQ.TopK,
		ContextThreshold:    cfg.FAQ.ContextThreshold,
		MaxContext:          cfg.FAQ.MaxContext,
		DefaultVariants:     cfg.FAQ.DefaultVariants,
		VariantTemperature:  cfg.FAQ.VariantTemperature,
		ClassifyTimeout:     cfg.FAQ.ClassifyTimeout,
		VariantTimeout:      cfg.FAQ.VariantTimeout,
		SearchConcurrency:   cfg.FAQ.SearchConcurrency,
		GeneralAnswer:       cfg.FAQ.GeneralAnswer,
		ErrorAnswer:         cfg.FAQ.ErrorAnswer,
		FallbackAnswer:      cfg.FAQ.FallbackAnswer,
	}
}

// ProvideChatGPTClient returns nil when the openai provider is not selected or has no key.
func ProvideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	if cfg.LLM.Provider != "openai" {
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("chatgpt client unavailable, running without a language model", "error", err)
		return nil
	}
	return client
}

// ProvideChatClient selects the generative model.
func ProvideChatClient(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) (faq.ChatClient, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		chat, err := ollama.NewChat(ollamaServerURL(cfg), cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("init ollama chat: %w", err)
		}
		logger.Info("ollama chat enabled", "model", cfg.LLM.Model)
		return chat, nil
	default:
		if client == nil {
			return llm.OfflineChat{}, nil
		}
		logger.Info("chatgpt chat enabled", "model", cfg.LLM.Model)
		return llm.NewChatGPTChat(client), nil
	}
}

// ProvideEmbeddingCache returns the Valkey cache when enabled and reachable, else an
// in-process cache. It returns nil when caching is disabled.
func ProvideEmbeddingCache(cfg *config.Config, logger *slog.Logger) (embedder.Cache, func()) {
	noop := func() {}
	if !cfg.Cache.Enabled {
		return nil, noop
	}
	if cfg.Cache.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return embedcache.NewMemoryCache(cfg.Cache.TTL), noop
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return embedcache.NewMemoryCache(cfg.Cache.TTL), noop
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
			return embedcache.NewMemoryCache(cfg.Cache.TTL), noop
		}
		logger.Info("valkey embedding cache enabled", "addr", cfg.Cache.Valkey.Addr)
		return embedcache.NewValkeyCache(client, "faq"), client.Close
	}
	logger.Info("memory embedding cache enabled", "ttl", cfg.Cache.TTL)
	return embedcache.NewMemoryCache(cfg.Cache.TTL), noop
}

// ProvideEmbedder selects the embedding model and wraps it with the cache when one is given.
func ProvideEmbedder(cfg *config.Config, client *chatgpt.Client, cache embedder.Cache, logger *slog.Logger) (faq.Embedder, error) {
	var base faq.Embedder
	switch {
	case cfg.LLM.Provider == "ollama":
		emb, err := ollama.NewEmbedder(ollamaServerURL(cfg), cfg.LLM.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("init ollama embedder: %w", err)
		}
		base = emb
	case client != nil:
		truncator := embedder.NewTruncator(cfg.LLM.EmbeddingModel, cfg.LLM.MaxInputTokens, logger)
		base = embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, cfg.LLM.EmbeddingDimensions, truncator, logger)
	default:
		logger.Error("no embedding model available, using deterministic embeddings", "dimensions", cfg.LLM.EmbeddingDimensions)
		return embedder.NewDeterministicEmbedder(cfg.LLM.EmbeddingDimensions), nil
	}
	if cache == nil {
		return base, nil
	}
	model, dims := cfg.LLM.EmbeddingModel, cfg.LLM.EmbeddingDimensions
	key := func(text string) string { return embedcache.Key(model, dims, text) }
	return embedder.NewCachedEmbedder(base, cache, key, cfg.Cache.TTL, logger), nil
}

// ProvideVectorStore opens the configured store. Reachability is checked by the caller
// through Stats so a down database fails startup with a clear message.
func ProvideVectorStore(cfg *config.Config, logger *slog.Logger) (faq.VectorStore, func(), error) {
	dims := cfg.LLM.EmbeddingDimensions
	switch cfg.Store.Driver {
	case "chromem":
		store, err := vectorstore.NewChromemStore(cfg.Store.Chromem.PersistPath, cfg.Store.Chromem.Compress, dims)
		if err != nil {
			return nil, nil, fmt.Errorf("open chromem store: %w", err)
		}
		logger.Info("chromem vector store enabled", "persist_path", cfg.Store.Chromem.PersistPath)
		return store, func() {}, nil
	default:
		pool, err := newPostgresPool(cfg.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.Postgres.BootstrapSchema {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := vectorstore.EnsureSchema(ctx, pool, dims); err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info("postgres schema ensured", "dimensions", dims)
		}
		logger.Info("postgres vector store enabled", "max_conns", cfg.Store.Postgres.MaxConns)
		return vectorstore.NewPostgresStore(pool, dims), pool.Close, nil
	}
}

func newPostgresPool(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	return pool, nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func ollamaServerURL(cfg *config.Config) string {
	url := strings.TrimSpace(cfg.LLM.BaseURL)
	if url == "" || strings.Contains(url, "api.openai.com") {
		return defaultOllamaURL
	}
	return url
}
