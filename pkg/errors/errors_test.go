package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	root := errors.New("connection refused")
	err := Wrap("store_error", "search failed", root)

	require.EqualError(t, err, "search failed: connection refused")
	require.True(t, IsCode(err, "store_error"))
	require.False(t, IsCode(err, "llm_error"))
	require.ErrorIs(t, err, root)

	wrapped := fmt.Errorf("pipeline: %w", err)
	require.Equal(t, "store_error", CodeOf(wrapped))
	require.Equal(t, "", CodeOf(root))
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap("invalid_input", "question cannot be empty", nil)
	require.EqualError(t, err, "question cannot be empty")
	require.Nil(t, errors.Unwrap(err))
}
