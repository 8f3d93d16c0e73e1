package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCachePrefix = "simeval:embeddings:"

// RedisCache wraps a Backend and stores its float embeddings in Redis, keyed by
// namespace and a hash of the text. Only cache misses reach the wrapped backend.
type RedisCache struct {
	client redis.UniversalClient
	next   Backend
	prefix string
	ttl    time.Duration
}

// NewRedisCache caches next in Redis. namespace should identify the model (e.g. "ollama/nomic-embed-text")
// so vectors from different models never collide. ttl 0 keeps entries forever.
func NewRedisCache(client redis.UniversalClient, next Backend, namespace string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		next:   next,
		prefix: defaultCachePrefix + namespace + ":",
		ttl:    ttl,
	}
}

func (c *RedisCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// EmbedBatch implements Backend.
func (c *RedisCache) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("embedding cache get: %w", err)
	}
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string
	for i, v := range vals {
		s, ok := v.(string)
		if ok {
			var vec []float64
			if err := json.Unmarshal([]byte(s), &vec); err == nil {
				out[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	fresh, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: backend returned %d embeddings for %d texts", len(fresh), len(missTexts))
	}
	pipe := c.client.Pipeline()
	for j, i := range missIdx {
		out[i] = fresh[j]
		raw, err := json.Marshal(fresh[j])
		if err != nil {
			return nil, err
		}
		pipe.Set(ctx, keys[i], raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("embedding cache set: %w", err)
	}
	return out, nil
}
