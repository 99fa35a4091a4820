package seeddata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

func TestDecode(t *testing.T) {
	want := []faq.SeedItem{{Question: "How do I reset my password?", Answer: "Go to Settings > Security."}}

	cases := map[string]string{
		"list": `
- question: How do I reset my password?
  answer: Go to Settings > Security.
`,
		"mapping": `
faqs:
  - question: How do I reset my password?
    answer: Go to Settings > Security.
`,
		"json": `[{"question": "How do I reset my password?", "answer": "Go to Settings > Security."}]`,
	}
	for name, body := range cases {
		got, err := Decode([]byte(body))
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	for _, bad := range []string{"", "faqs: []", "just a string", "- [unterminated"} {
		_, err := Decode([]byte(bad))
		require.Error(t, err, bad)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- question: q\n  answer: a\n"), 0o600))

	src := NewFileSource(path)
	require.Equal(t, path, src.Name())
	items, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []faq.SeedItem{{Question: "q", Answer: "a"}}, items)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background())
	require.Error(t, err)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "abc.r2.cloudflarestorage.com", sanitizeEndpoint("https://abc.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

func TestObjectSourceName(t *testing.T) {
	src, err := NewObjectSource(ObjectOptions{Endpoint: "http://localhost:9000", Bucket: "faq", Key: "seed/faqs.yaml"}, nil)
	require.NoError(t, err)
	require.Equal(t, "s3://faq/seed/faqs.yaml", src.Name())
}
