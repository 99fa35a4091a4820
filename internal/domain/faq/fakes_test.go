package faq

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/faq-rag/pkg/metrics"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type promptKind int

const (
	kindUnknown promptKind = iota
	kindRouter
	kindVariants
	kindGrounded
	kindUngrounded
)

func kindOf(req CompletionRequest) promptKind {
	if len(req.Messages) == 0 {
		return kindUnknown
	}
	system := req.Messages[0].Content
	switch {
	case system == routerSystemPrompt:
		return kindRouter
	case strings.HasPrefix(system, "You are a helpful assistant that rewrites"):
		return kindVariants
	case system == groundedSystemPrompt:
		return kindGrounded
	case system == ungroundedSystemPrompt:
		return kindUngrounded
	default:
		return kindUnknown
	}
}

type stubChatClient struct {
	mu         sync.Mutex
	calls      []CompletionRequest
	completeFn func(ctx context.Context, req CompletionRequest) (Completion, error)
}

func (s *stubChatClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.completeFn != nil {
		return s.completeFn(ctx, req)
	}
	return Completion{}, nil
}

func (s *stubChatClient) callsOf(kind promptKind) []CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CompletionRequest
	for _, call := range s.calls {
		if kindOf(call) == kind {
			out = append(out, call)
		}
	}
	return out
}

// scriptedChat answers each prompt kind with a fixed text.
type scriptedChat struct {
	topic      string
	variants   string
	grounded   string
	ungrounded string
	errs       map[promptKind]error
}

func (s scriptedChat) client() *stubChatClient {
	return &stubChatClient{completeFn: func(_ context.Context, req CompletionRequest) (Completion, error) {
		kind := kindOf(req)
		if err := s.errs[kind]; err != nil {
			return Completion{}, err
		}
		usage := metrics.TokenUsage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12}
		switch kind {
		case kindRouter:
			return Completion{Text: s.topic, Usage: usage}, nil
		case kindVariants:
			return Completion{Text: s.variants, Usage: usage}, nil
		case kindGrounded:
			return Completion{Text: s.grounded, Usage: usage}, nil
		case kindUngrounded:
			return Completion{Text: s.ungrounded, Usage: usage}, nil
		}
		return Completion{}, nil
	}}
}

type stubEmbedder struct {
	mu      sync.Mutex
	calls   [][]string
	vectors map[string][]float32
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), texts...))
	s.mu.Unlock()
	if s.embedFn != nil {
		return s.embedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := s.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = []float32{0}
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeStore answers searches through callbacks keyed on the query vector.
type fakeStore struct {
	mu           sync.Mutex
	primaryFn    func(embedding []float32, limit int) ([]MatchCandidate, error)
	aliasFn      func(embedding []float32, limit int) ([]MatchCandidate, error)
	primaryCalls int
	aliasCalls   int
	statsErr     error

	nextID   int64
	entries  map[int64]FaqEntry
	variants []FaqVariant
	resets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[int64]FaqEntry)}
}

func (s *fakeStore) InsertEntry(_ context.Context, entry FaqEntry) (FaqEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries[entry.ID] = entry
	return entry, nil
}

func (s *fakeStore) InsertVariant(_ context.Context, variant FaqVariant) (FaqVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[variant.FaqID]; !ok {
		return FaqVariant{}, ErrOrphanVariant
	}
	variant.ID = int64(len(s.variants) + 1)
	s.variants = append(s.variants, variant)
	return variant, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	kept := s.variants[:0]
	for _, v := range s.variants {
		if v.FaqID != id {
			kept = append(kept, v)
		}
	}
	s.variants = kept
	return nil
}

func (s *fakeStore) SearchPrimary(_ context.Context, embedding []float32, limit int) ([]MatchCandidate, error) {
	s.mu.Lock()
	s.primaryCalls++
	fn := s.primaryFn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(embedding, limit)
}

func (s *fakeStore) SearchAliases(_ context.Context, embedding []float32, limit int) ([]MatchCandidate, error) {
	s.mu.Lock()
	s.aliasCalls++
	fn := s.aliasFn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(embedding, limit)
}

func (s *fakeStore) Stats(context.Context) (StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsErr != nil {
		return StoreStats{}, s.statsErr
	}
	return StoreStats{Entries: int64(len(s.entries)), Variants: int64(len(s.variants))}, nil
}

func (s *fakeStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.entries = make(map[int64]FaqEntry)
	s.variants = nil
	return nil
}

func (s *fakeStore) searchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primaryCalls + s.aliasCalls
}

var _ VectorStore = (*fakeStore)(nil)

func boolPtr(v bool) *bool { return &v }
