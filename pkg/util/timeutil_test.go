package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundMillis(t *testing.T) {
	require.Equal(t, 12.35, RoundMillis(12345678*time.Nanosecond))
	require.Equal(t, 0.0, RoundMillis(0))
	require.Equal(t, 1500.0, RoundMillis(1500*time.Millisecond))
}
