package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

const (
	faqsCollection     = "faqs"
	variantsCollection = "faq_variants"

	metaQuestion = "question"
	metaAnswer   = "answer"
	metaFaqID    = "faq_id"
)

var errNoEmbeddingFunc = errors.New("chromem store only accepts precomputed embeddings")

// refuseEmbedding keeps chromem from calling its default remote embedder.
func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// ChromemStore implements faq.VectorStore with in-process chromem-go collections.
// Writes and searches are serialized against each other so parent checks and cascades are atomic.
type ChromemStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	faqs       *chromem.Collection
	variants   *chromem.Collection
	dimensions int
	nextFaq    int64
	nextVar    int64
}

// NewChromemStore opens an in-memory store, or a persistent one when persistPath is set.
func NewChromemStore(persistPath string, compress bool, dimensions int) (*ChromemStore, error) {
	db := chromem.NewDB()
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}
	s := &ChromemStore{db: db, dimensions: dimensions}
	if err := s.openCollections(); err != nil {
		return nil, err
	}
	var err error
	if s.nextFaq, err = s.maxID(s.faqs); err != nil {
		return nil, err
	}
	if s.nextVar, err = s.maxID(s.variants); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) openCollections() error {
	var err error
	if s.faqs, err = s.db.GetOrCreateCollection(faqsCollection, nil, refuseEmbedding); err != nil {
		return fmt.Errorf("open %s collection: %w", faqsCollection, err)
	}
	if s.variants, err = s.db.GetOrCreateCollection(variantsCollection, nil, refuseEmbedding); err != nil {
		return fmt.Errorf("open %s collection: %w", variantsCollection, err)
	}
	return nil
}

// maxID scans a persisted collection for its highest document ID.
func (s *ChromemStore) maxID(collection *chromem.Collection) (int64, error) {
	count := collection.Count()
	if count == 0 || s.dimensions <= 0 {
		return 0, nil
	}
	probe := make([]float32, s.dimensions)
	probe[0] = 1
	docs, err := collection.QueryEmbedding(context.Background(), probe, count, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("scan %s ids: %w", collection.Name, err)
	}
	var highest int64
	for _, doc := range docs {
		if id, err := strconv.ParseInt(doc.ID, 10, 64); err == nil && id > highest {
			highest = id
		}
	}
	return highest, nil
}

// InsertEntry stores a FAQ with a new ID.
func (s *ChromemStore) InsertEntry(ctx context.Context, entry faq.FaqEntry) (faq.FaqEntry, error) {
	if err := checkDimensions(entry.Embedding, s.dimensions); err != nil {
		return faq.FaqEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextFaq + 1
	err := s.faqs.AddDocument(ctx, chromem.Document{
		ID:        formatID(id),
		Metadata:  map[string]string{metaQuestion: entry.Question, metaAnswer: entry.Answer},
		Embedding: append([]float32(nil), entry.Embedding...),
		Content:   entry.Question,
	})
	if err != nil {
		return faq.FaqEntry{}, fmt.Errorf("insert faq: %w", err)
	}
	s.nextFaq = id
	entry.ID = id
	return entry, nil
}

// InsertVariant stores a paraphrase of an existing FAQ.
func (s *ChromemStore) InsertVariant(ctx context.Context, variant faq.FaqVariant) (faq.FaqVariant, error) {
	if err := checkDimensions(variant.Embedding, s.dimensions); err != nil {
		return faq.FaqVariant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.faqs.GetByID(ctx, formatID(variant.FaqID)); err != nil {
		return faq.FaqVariant{}, fmt.Errorf("faq %d: %w", variant.FaqID, faq.ErrOrphanVariant)
	}
	id := s.nextVar + 1
	err := s.variants.AddDocument(ctx, chromem.Document{
		ID:        formatID(id),
		Metadata:  map[string]string{metaFaqID: formatID(variant.FaqID)},
		Embedding: append([]float32(nil), variant.Embedding...),
		Content:   variant.Text,
	})
	if err != nil {
		return faq.FaqVariant{}, fmt.Errorf("insert faq variant: %w", err)
	}
	s.nextVar = id
	variant.ID = id
	return variant, nil
}

// DeleteEntry removes a FAQ and every variant that points at it.
func (s *ChromemStore) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := formatID(id)
	if _, err := s.faqs.GetByID(ctx, key); err != nil {
		return faq.ErrNotFound
	}
	if err := s.variants.Delete(ctx, map[string]string{metaFaqID: key}, nil); err != nil {
		return fmt.Errorf("delete faq variants: %w", err)
	}
	if err := s.faqs.Delete(ctx, nil, nil, key); err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return nil
}

// SearchPrimary ranks FAQ questions by cosine similarity.
func (s *ChromemStore) SearchPrimary(ctx context.Context, embedding []float32, limit int) ([]faq.MatchCandidate, error) {
	if err := checkDimensions(embedding, s.dimensions); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := query(ctx, s.faqs, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search faqs: %w", err)
	}
	out := make([]faq.MatchCandidate, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, faq.MatchCandidate{
			FaqID:      id,
			Question:   r.Metadata[metaQuestion],
			Answer:     r.Metadata[metaAnswer],
			Similarity: faq.ClampSimilarity(float64(r.Similarity)),
			Source:     faq.MatchSourcePrimary,
		})
	}
	return out, nil
}

// SearchAliases ranks variants by cosine similarity and resolves their parent FAQ.
func (s *ChromemStore) SearchAliases(ctx context.Context, embedding []float32, limit int) ([]faq.MatchCandidate, error) {
	if err := checkDimensions(embedding, s.dimensions); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := query(ctx, s.variants, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search faq variants: %w", err)
	}
	out := make([]faq.MatchCandidate, 0, len(results))
	for _, r := range results {
		parentKey := r.Metadata[metaFaqID]
		parent, err := s.faqs.GetByID(ctx, parentKey)
		if err != nil {
			continue
		}
		id, err := strconv.ParseInt(parentKey, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, faq.MatchCandidate{
			FaqID:       id,
			Question:    parent.Metadata[metaQuestion],
			Answer:      parent.Metadata[metaAnswer],
			Similarity:  faq.ClampSimilarity(float64(r.Similarity)),
			Source:      faq.MatchSourceAlias,
			MatchedText: r.Content,
		})
	}
	return out, nil
}

// query clamps nResults to the collection size, which chromem requires.
func query(ctx context.Context, collection *chromem.Collection, embedding []float32, limit int) ([]chromem.Result, error) {
	n := min(limit, collection.Count())
	if n <= 0 {
		return nil, nil
	}
	return collection.QueryEmbedding(ctx, embedding, n, nil, nil)
}

// Stats counts both collections.
func (s *ChromemStore) Stats(context.Context) (faq.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return faq.StoreStats{
		Entries:  int64(s.faqs.Count()),
		Variants: int64(s.variants.Count()),
	}, nil
}

// Reset drops and recreates both collections.
func (s *ChromemStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{variantsCollection, faqsCollection} {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("drop %s collection: %w", name, err)
		}
	}
	s.nextFaq, s.nextVar = 0, 0
	return s.openCollections()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ faq.VectorStore = (*ChromemStore)(nil)
