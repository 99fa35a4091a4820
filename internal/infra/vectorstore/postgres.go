package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

const foreignKeyViolation = "23503"

// PostgresStore implements faq.VectorStore on pgvector tables faqs and faq_variants.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStore constructs the store. dimensions must match the vector(D) columns.
func NewPostgresStore(pool *pgxpool.Pool, dimensions int) *PostgresStore {
	return &PostgresStore{pool: pool, dimensions: dimensions}
}

// InsertEntry inserts a new FAQ row and returns it with its ID.
func (s *PostgresStore) InsertEntry(ctx context.Context, entry faq.FaqEntry) (faq.FaqEntry, error) {
	if err := checkDimensions(entry.Embedding, s.dimensions); err != nil {
		return faq.FaqEntry{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO faqs (question, answer, question_embedding)
		VALUES ($1, $2, $3)
		RETURNING id
	`, entry.Question, entry.Answer, pgvector.NewVector(entry.Embedding))
	if err := row.Scan(&entry.ID); err != nil {
		return faq.FaqEntry{}, fmt.Errorf("insert faq: %w", err)
	}
	return entry, nil
}

// InsertVariant inserts a paraphrase. A missing parent surfaces as faq.ErrOrphanVariant.
func (s *PostgresStore) InsertVariant(ctx context.Context, variant faq.FaqVariant) (faq.FaqVariant, error) {
	if err := checkDimensions(variant.Embedding, s.dimensions); err != nil {
		return faq.FaqVariant{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO faq_variants (faq_id, variant, embedding)
		VALUES ($1, $2, $3)
		RETURNING id
	`, variant.FaqID, variant.Text, pgvector.NewVector(variant.Embedding))
	if err := row.Scan(&variant.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return faq.FaqVariant{}, fmt.Errorf("faq %d: %w", variant.FaqID, faq.ErrOrphanVariant)
		}
		return faq.FaqVariant{}, fmt.Errorf("insert faq variant: %w", err)
	}
	return variant, nil
}

// DeleteEntry removes a FAQ. The foreign key cascades to its variants.
func (s *PostgresStore) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return faq.ErrNotFound
	}
	return nil
}

// SearchPrimary ranks FAQ questions by cosine similarity.
func (s *PostgresStore) SearchPrimary(ctx context.Context, embedding []float32, limit int) ([]faq.MatchCandidate, error) {
	if err := checkDimensions(embedding, s.dimensions); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, 1 - (question_embedding <=> $1) AS similarity
		FROM faqs
		ORDER BY question_embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search faqs: %w", err)
	}
	defer rows.Close()

	out := make([]faq.MatchCandidate, 0, limit)
	for rows.Next() {
		candidate := faq.MatchCandidate{Source: faq.MatchSourcePrimary}
		if err := rows.Scan(&candidate.FaqID, &candidate.Question, &candidate.Answer, &candidate.Similarity); err != nil {
			return nil, fmt.Errorf("scan faq match: %w", err)
		}
		candidate.Similarity = faq.ClampSimilarity(candidate.Similarity)
		out = append(out, candidate)
	}
	return out, rows.Err()
}

// SearchAliases ranks variants by cosine similarity and joins their parent FAQ.
func (s *PostgresStore) SearchAliases(ctx context.Context, embedding []float32, limit int) ([]faq.MatchCandidate, error) {
	if err := checkDimensions(embedding, s.dimensions); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT v.faq_id, f.question, f.answer, v.variant, 1 - (v.embedding <=> $1) AS similarity
		FROM faq_variants v
		JOIN faqs f ON f.id = v.faq_id
		ORDER BY v.embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search faq variants: %w", err)
	}
	defer rows.Close()

	out := make([]faq.MatchCandidate, 0, limit)
	for rows.Next() {
		candidate := faq.MatchCandidate{Source: faq.MatchSourceAlias}
		if err := rows.Scan(&candidate.FaqID, &candidate.Question, &candidate.Answer, &candidate.MatchedText, &candidate.Similarity); err != nil {
			return nil, fmt.Errorf("scan variant match: %w", err)
		}
		candidate.Similarity = faq.ClampSimilarity(candidate.Similarity)
		out = append(out, candidate)
	}
	return out, rows.Err()
}

// Stats counts both tables. It doubles as the readiness probe.
func (s *PostgresStore) Stats(ctx context.Context) (faq.StoreStats, error) {
	var stats faq.StoreStats
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM faqs), (SELECT count(*) FROM faq_variants)
	`).Scan(&stats.Entries, &stats.Variants)
	if err != nil {
		return faq.StoreStats{}, fmt.Errorf("count faqs: %w", err)
	}
	return stats, nil
}

// Reset empties both tables and restarts their ID sequences.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE faq_variants, faqs RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("reset faqs: %w", err)
	}
	return nil
}

func checkDimensions(embedding []float32, want int) error {
	if want > 0 && len(embedding) != want {
		return fmt.Errorf("%w: expected %d, got %d", faq.ErrDimensionMismatch, want, len(embedding))
	}
	return nil
}

var _ faq.VectorStore = (*PostgresStore)(nil)
