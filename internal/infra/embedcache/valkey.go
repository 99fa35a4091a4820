package embedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache shares embeddings across instances through a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "faq-rag"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get loads a vector. A missing key is a miss, not an error.
func (c *ValkeyCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	cmd := c.client.B().Get().Key(c.entryKey(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var vector []float32
	if err := json.Unmarshal([]byte(payload), &vector); err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vector, true, nil
}

// Set stores the vector with an optional ttl.
func (c *ValkeyCache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	payload, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) entryKey(key string) string {
	return fmt.Sprintf("%s:emb:%s", c.prefix, key)
}
