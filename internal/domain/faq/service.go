package faq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/yanqian/faq-rag/pkg/errors"
	"github.com/yanqian/faq-rag/pkg/util"
)

// Service exposes the FAQ answering workflow.
type Service interface {
	Answer(ctx context.Context, req Request) (Response, error)
	Health(ctx context.Context) HealthStatus
}

type service struct {
	cfg         Config
	store       VectorStore
	classifier  *TopicClassifier
	variants    *VariantGenerator
	retrieval   *RetrievalEngine
	synthesizer *AnswerSynthesizer
	logger      *slog.Logger
}

// NewService wires up the FAQ domain.
func NewService(cfg Config, store VectorStore, embedder Embedder, client ChatClient, logger *slog.Logger) Service {
	cfg = cfg.withDefaults()
	return &service{
		cfg:         cfg,
		store:       store,
		classifier:  NewTopicClassifier(client, cfg.Model),
		variants:    NewVariantGenerator(client, cfg.Model, logger),
		retrieval:   NewRetrievalEngine(store, embedder, cfg.SearchConcurrency, logger),
		synthesizer: NewAnswerSynthesizer(client, cfg.Model, cfg.Temperature),
		logger:      logger.With("component", "faq.service"),
	}
}

// Answer validates the request and runs it through the pipeline. Only invalid input is
// returned as an error; every other failure becomes a response with source "error".
func (s *service) Answer(ctx context.Context, req Request) (resp Response, err error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, apperrors.Wrap("invalid_input", "question cannot be empty", nil)
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return Response{}, apperrors.Wrap("invalid_input", fmt.Sprintf("question cannot exceed %d characters", maxQuestionLength), nil)
	}
	numVariants := req.NumVariants
	if numVariants == 0 {
		numVariants = s.cfg.DefaultVariants
	}
	if numVariants < 1 || numVariants > maxRequestVariants {
		return Response{}, apperrors.Wrap("invalid_input", fmt.Sprintf("num_variants must be between 1 and %d", maxRequestVariants), nil)
	}
	generate := true
	if req.GenerateVariants != nil {
		generate = *req.GenerateVariants
	}

	start := time.Now()
	s.logger.Info("question received", "question", question, "generate_variants", generate, "num_variants", numVariants)

	p := &pipeline{
		cfg:              s.cfg,
		classifier:       s.classifier,
		variants:         s.variants,
		retrieval:        s.retrieval,
		synthesizer:      s.synthesizer,
		logger:           s.logger,
		question:         question,
		generateVariants: generate,
		numVariants:      numVariants,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("question answering panicked", "panic", r, "state_trace", p.trace)
			p.err = fmt.Errorf("panic: %v", r)
			p.fail(ctx)
			resp = p.response()
			resp.ProcessingTimeMs = util.ElapsedMillis(start)
			err = nil
		}
	}()

	resp = p.run(ctx)
	resp.ProcessingTimeMs = util.ElapsedMillis(start)
	attrs := []any{"source", resp.Source, "confidence", resp.Confidence, "processing_time_ms", resp.ProcessingTimeMs}
	if !p.usage.IsZero() {
		attrs = append(attrs, "prompt_tokens", p.usage.PromptTokens, "completion_tokens", p.usage.CompletionTokens, "total_tokens", p.usage.TotalTokens)
	}
	s.logger.Info("question answered", attrs...)
	return resp, nil
}

// Health reports whether the vector store is reachable and how much it holds.
func (s *service) Health(ctx context.Context) HealthStatus {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return HealthStatus{Healthy: false, Err: apperrors.Wrap("store_error", "vector store unavailable", err)}
	}
	return HealthStatus{Healthy: true, Stats: stats}
}
