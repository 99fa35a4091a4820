package embedcache

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Key derives the cache key for text embedded by model at the given dimensions.
func Key(model string, dimensions int, text string) string {
	sum := blake2b.Sum256([]byte(text))
	return model + ":" + strconv.Itoa(dimensions) + ":" + hex.EncodeToString(sum[:])
}
