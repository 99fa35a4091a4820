package faq

import (
	"context"
	"errors"
)

var (
	// ErrOrphanVariant is returned when a variant references a missing entry.
	ErrOrphanVariant = errors.New("faq variant references a missing entry")
	// ErrDimensionMismatch is returned when a vector does not match the store dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("faq entry not found")
)

// VectorStore owns the primary and aliases collections.
// Deleting an entry must delete its variants.
type VectorStore interface {
	InsertEntry(ctx context.Context, entry FaqEntry) (FaqEntry, error)
	InsertVariant(ctx context.Context, variant FaqVariant) (FaqVariant, error)
	DeleteEntry(ctx context.Context, id int64) error
	SearchPrimary(ctx context.Context, embedding []float32, limit int) ([]MatchCandidate, error)
	SearchAliases(ctx context.Context, embedding []float32, limit int) ([]MatchCandidate, error)
	Stats(ctx context.Context) (StoreStats, error)
	Reset(ctx context.Context) error
}

// SimilarityFromDistance converts a cosine distance into a similarity in [0,1].
func SimilarityFromDistance(distance float64) float64 {
	return ClampSimilarity(1 - distance)
}

// ClampSimilarity bounds s to [0,1].
func ClampSimilarity(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
