package vectorstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements(1536)
	require.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])

	all := strings.Join(stmts, "\n")
	require.Contains(t, all, "question_embedding vector(1536)")
	require.Contains(t, all, "embedding vector(1536)")
	require.Contains(t, all, "REFERENCES faqs(id) ON DELETE CASCADE")
	require.Contains(t, all, "vector_cosine_ops")
	require.Contains(t, all, "faq_variants (faq_id)")
}

func TestCheckDimensions(t *testing.T) {
	require.NoError(t, checkDimensions([]float32{1, 2}, 2))
	require.NoError(t, checkDimensions([]float32{1}, 0))
	require.ErrorIs(t, checkDimensions([]float32{1}, 2), faq.ErrDimensionMismatch)
}
