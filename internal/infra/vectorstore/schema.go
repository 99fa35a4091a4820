package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatements returns the DDL for the FAQ tables at the given vector dimension.
func SchemaStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS faqs (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			question_embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS faq_variants (
			id BIGSERIAL PRIMARY KEY,
			faq_id BIGINT NOT NULL REFERENCES faqs(id) ON DELETE CASCADE,
			variant TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS faqs_question_embedding_idx
			ON faqs USING ivfflat (question_embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS faq_variants_embedding_idx
			ON faq_variants USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS faq_variants_faq_id_idx ON faq_variants (faq_id)`,
	}
}

// EnsureSchema creates the extension, tables and indexes when they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	for _, stmt := range SchemaStatements(dimensions) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
