package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Auth  AuthConfig  `yaml:"auth"`
	LLM   LLMConfig   `yaml:"llm"`
	FAQ   FAQConfig   `yaml:"faq"`
	Store StoreConfig `yaml:"store"`
	Cache CacheConfig `yaml:"cache"`
	Seed  SeedConfig  `yaml:"seed"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig lists the accepted API keys.
type AuthConfig struct {
	APIKeys []string `yaml:"apiKeys"`
	Header  string   `yaml:"header"`
	// UsingDemoKey is set by Load when no keys were configured.
	UsingDemoKey bool `yaml:"-"`
}

// LLMConfig selects the model provider and its settings.
type LLMConfig struct {
	Provider            string        `yaml:"provider"`
	APIKey              string        `yaml:"apiKey"`
	BaseURL             string        `yaml:"baseUrl"`
	Model               string        `yaml:"model"`
	EmbeddingModel      string        `yaml:"embeddingModel"`
	EmbeddingDimensions int           `yaml:"embeddingDimensions"`
	Temperature         float32       `yaml:"temperature"`
	MaxInputTokens      int           `yaml:"maxInputTokens"`
	Timeout             time.Duration `yaml:"timeout"`
}

// FAQConfig tunes the answering pipeline.
type FAQConfig struct {
	ConfidenceThreshold float64       `yaml:"confidenceThreshold"`
	TopK                int           `yaml:"topK"`
	ContextThreshold    float64       `yaml:"contextThreshold"`
	MaxContext          int           `yaml:"maxContext"`
	DefaultVariants     int           `yaml:"defaultVariants"`
	VariantTemperature  float32       `yaml:"variantTemperature"`
	ClassifyTimeout     time.Duration `yaml:"classifyTimeout"`
	VariantTimeout      time.Duration `yaml:"variantTimeout"`
	SearchConcurrency   int           `yaml:"searchConcurrency"`
	GeneralAnswer       string        `yaml:"generalAnswer"`
	ErrorAnswer         string        `yaml:"errorAnswer"`
	FallbackAnswer      string        `yaml:"fallbackAnswer"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Postgres PostgresConfig `yaml:"postgres"`
	Chromem  ChromemConfig  `yaml:"chromem"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	BootstrapSchema bool   `yaml:"bootstrapSchema"`
}

// ChromemConfig controls the in-process store.
type ChromemConfig struct {
	PersistPath string `yaml:"persistPath"`
	Compress    bool   `yaml:"compress"`
}

// CacheConfig controls the embedding cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Valkey  ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the remote cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SeedConfig drives cmd/seed.
type SeedConfig struct {
	File           string       `yaml:"file"`
	Object         ObjectConfig `yaml:"object"`
	VariantsPerFAQ int          `yaml:"variantsPerFaq"`
	Reset          bool         `yaml:"reset"`
	Concurrency    int          `yaml:"concurrency"`
}

// ObjectConfig points at a seed dataset in S3 compatible storage.
type ObjectConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSsl"`
}

// Enabled reports whether an object source is configured.
func (o ObjectConfig) Enabled() bool {
	return strings.TrimSpace(o.Bucket) != "" && strings.TrimSpace(o.Key) != ""
}

// DemoAPIKey is accepted when no keys are configured.
const DemoAPIKey = "demo_key"

// Load reads configuration from defaults, an optional .env file, a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyAuthFallback()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyAuthFallback() {
	keys := make([]string, 0, len(c.Auth.APIKeys))
	for _, key := range c.Auth.APIKeys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = []string{DemoAPIKey}
		c.Auth.UsingDemoKey = true
	}
	c.Auth.APIKeys = keys
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setDuration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	setDuration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	setList(&cfg.HTTP.CORSOrigins, "HTTP_CORS_ORIGINS")
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setList(&cfg.Auth.APIKeys, "API_KEYS")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.EmbeddingModel, "EMBEDDING_MODEL")
	setInt(&cfg.LLM.EmbeddingDimensions, "EMBEDDING_DIMENSIONS")
	setFloat32(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxInputTokens, "LLM_MAX_INPUT_TOKENS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")

	setFloat64(&cfg.FAQ.ConfidenceThreshold, "CONFIDENCE_THRESHOLD")
	setInt(&cfg.FAQ.TopK, "FAQ_TOP_K")
	setFloat64(&cfg.FAQ.ContextThreshold, "FAQ_CONTEXT_THRESHOLD")
	setInt(&cfg.FAQ.MaxContext, "FAQ_MAX_CONTEXT")
	setInt(&cfg.FAQ.DefaultVariants, "FAQ_DEFAULT_VARIANTS")
	setFloat32(&cfg.FAQ.VariantTemperature, "FAQ_VARIANT_TEMPERATURE")
	setDuration(&cfg.FAQ.ClassifyTimeout, "FAQ_CLASSIFY_TIMEOUT")
	setDuration(&cfg.FAQ.VariantTimeout, "FAQ_VARIANT_TIMEOUT")
	setInt(&cfg.FAQ.SearchConcurrency, "FAQ_SEARCH_CONCURRENCY")

	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.Postgres.DSN, "STORE_POSTGRES_DSN")
	setString(&cfg.Store.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Store.Postgres.MaxConns, "STORE_POSTGRES_MAX_CONNS")
	setInt32(&cfg.Store.Postgres.MinConns, "STORE_POSTGRES_MIN_CONNS")
	setBool(&cfg.Store.Postgres.BootstrapSchema, "STORE_POSTGRES_BOOTSTRAP_SCHEMA")
	setString(&cfg.Store.Chromem.PersistPath, "STORE_CHROMEM_PERSIST_PATH")
	setBool(&cfg.Store.Chromem.Compress, "STORE_CHROMEM_COMPRESS")

	setBool(&cfg.Cache.Enabled, "CACHE_ENABLED")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setBool(&cfg.Cache.Valkey.Enabled, "CACHE_VALKEY_ENABLED")
	setString(&cfg.Cache.Valkey.Addr, "CACHE_VALKEY_ADDR")

	setString(&cfg.Seed.File, "SEED_FILE")
	setString(&cfg.Seed.Object.Endpoint, "SEED_OBJECT_ENDPOINT")
	setString(&cfg.Seed.Object.AccessKey, "SEED_OBJECT_ACCESS_KEY")
	setString(&cfg.Seed.Object.SecretKey, "SEED_OBJECT_SECRET_KEY")
	setString(&cfg.Seed.Object.Bucket, "SEED_OBJECT_BUCKET")
	setString(&cfg.Seed.Object.Key, "SEED_OBJECT_KEY")
	setString(&cfg.Seed.Object.Region, "SEED_OBJECT_REGION")
	setBool(&cfg.Seed.Object.UseSSL, "SEED_OBJECT_USE_SSL")
	setInt(&cfg.Seed.VariantsPerFAQ, "SEED_VARIANTS_PER_FAQ")
	setBool(&cfg.Seed.Reset, "SEED_RESET")
	setInt(&cfg.Seed.Concurrency, "SEED_CONCURRENCY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setFloat32(dst *float32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(parsed)
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
			},
		},
		Auth: AuthConfig{
			Header: "X-API-Key",
		},
		LLM: LLMConfig{
			Provider:            "openai",
			BaseURL:             "https://api.openai.com/v1",
			Model:               "gpt-4o",
			EmbeddingModel:      "text-embedding-3-small",
			EmbeddingDimensions: 1536,
			Temperature:         0.7,
			MaxInputTokens:      8000,
			Timeout:             30 * time.Second,
		},
		FAQ: FAQConfig{
			ConfidenceThreshold: 0.75,
			TopK:                5,
			ContextThreshold:    0.5,
			MaxContext:          3,
			DefaultVariants:     3,
			VariantTemperature:  0.7,
			ClassifyTimeout:     10 * time.Second,
			VariantTimeout:      15 * time.Second,
			SearchConcurrency:   8,
		},
		Store: StoreConfig{
			Driver: "postgres",
			Postgres: PostgresConfig{
				MaxConns: 10,
				MinConns: 2,
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Seed: SeedConfig{
			File:           "configs/faqs.yaml",
			VariantsPerFAQ: 3,
			Concurrency:    4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.Auth.Header) == "" {
		return errors.New("auth.header cannot be empty")
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.LLM.EmbeddingDimensions <= 0 {
		return errors.New("llm.embeddingDimensions must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.FAQ.ConfidenceThreshold < 0 || c.FAQ.ConfidenceThreshold > 1 {
		return errors.New("faq.confidenceThreshold must be between 0 and 1")
	}
	if c.FAQ.ContextThreshold < 0 || c.FAQ.ContextThreshold > 1 {
		return errors.New("faq.contextThreshold must be between 0 and 1")
	}
	if c.FAQ.TopK <= 0 {
		return errors.New("faq.topK must be positive")
	}
	if c.FAQ.MaxContext <= 0 {
		return errors.New("faq.maxContext must be positive")
	}
	if c.FAQ.DefaultVariants < 1 || c.FAQ.DefaultVariants > 5 {
		return errors.New("faq.defaultVariants must be between 1 and 5")
	}
	switch c.Store.Driver {
	case "postgres":
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return errors.New("store.postgres.dsn cannot be empty when driver is postgres")
		}
		if c.Store.Postgres.MinConns > c.Store.Postgres.MaxConns {
			return errors.New("store.postgres.minConns cannot exceed maxConns")
		}
	case "chromem":
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	if c.Seed.VariantsPerFAQ < 0 || c.Seed.VariantsPerFAQ > 10 {
		return errors.New("seed.variantsPerFaq must be between 0 and 10")
	}
	return nil
}
