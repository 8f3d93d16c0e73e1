// Package middleware provides observability and cross-cutting wrappers for embedding backends.
package middleware

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klejdi94/simeval/embedder"
	"go.uber.org/zap"
)

// Middleware wraps a backend with additional behavior (logging, metrics, cache, etc.).
type Middleware func(embedder.Backend) embedder.Backend

// Chain wraps b with all middlewares in order (first middleware is outermost).
func Chain(b embedder.Backend, mws ...Middleware) embedder.Backend {
	for i := len(mws) - 1; i >= 0; i-- {
		b = mws[i](b)
	}
	return b
}

type backendFunc func(ctx context.Context, texts []string) ([][]float64, error)

func (f backendFunc) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}

// Logging logs each batch at debug level and failures at error level.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next embedder.Backend) embedder.Backend {
		return backendFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
			start := time.Now()
			vecs, err := next.EmbedBatch(ctx, texts)
			if err != nil {
				logger.Error("embed batch failed", zap.Int("texts", len(texts)), zap.Error(err))
				return nil, err
			}
			dim := 0
			if len(vecs) > 0 {
				dim = len(vecs[0])
			}
			logger.Debug("embed batch", zap.Int("texts", len(texts)), zap.Int("dim", dim), zap.Duration("took", time.Since(start)))
			return vecs, nil
		})
	}
}

// Timeout bounds every batch call by d. Zero or negative d disables it.
func Timeout(d time.Duration) Middleware {
	return func(next embedder.Backend) embedder.Backend {
		if d <= 0 {
			return next
		}
		return backendFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.EmbedBatch(ctx, texts)
		})
	}
}

// MetricsCounters provides read access to collected metrics.
type MetricsCounters struct {
	requests atomic.Uint64
	errors   atomic.Uint64
	texts    atomic.Uint64
	nanos    atomic.Int64
}

func (c *MetricsCounters) Requests() uint64 { return c.requests.Load() }
func (c *MetricsCounters) Errors() uint64   { return c.errors.Load() }
func (c *MetricsCounters) Texts() uint64    { return c.texts.Load() }

// Latency is the total time spent in the wrapped backend.
func (c *MetricsCounters) Latency() time.Duration { return time.Duration(c.nanos.Load()) }

// Fields returns the counters as zap fields.
func (c *MetricsCounters) Fields() []zap.Field {
	return []zap.Field{
		zap.Uint64("requests", c.Requests()),
		zap.Uint64("errors", c.Errors()),
		zap.Uint64("texts", c.Texts()),
		zap.Duration("latency", c.Latency()),
	}
}

// Metrics returns a middleware that counts requests, errors and embedded texts.
func Metrics() (Middleware, *MetricsCounters) {
	c := &MetricsCounters{}
	return func(next embedder.Backend) embedder.Backend {
		return backendFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
			c.requests.Add(1)
			start := time.Now()
			vecs, err := next.EmbedBatch(ctx, texts)
			c.nanos.Add(int64(time.Since(start)))
			if err != nil {
				c.errors.Add(1)
				return nil, err
			}
			c.texts.Add(uint64(len(texts)))
			return vecs, nil
		})
	}, c
}

// Cache stores embeddings by text.
type Cache interface {
	Get(ctx context.Context, key string) ([]float64, bool)
	Set(ctx context.Context, key string, val []float64, ttl time.Duration) error
}

// CacheMiddleware serves texts from cache and embeds only the misses.
// namespace keeps vectors from different models apart.
func CacheMiddleware(cache Cache, namespace string, ttl time.Duration) Middleware {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return func(next embedder.Backend) embedder.Backend {
		return backendFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
			out := make([][]float64, len(texts))
			var missIdx []int
			var missTexts []string
			for i, t := range texts {
				if v, ok := cache.Get(ctx, namespace+"\x00"+t); ok {
					out[i] = v
					continue
				}
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, t)
			}
			if len(missTexts) == 0 {
				return out, nil
			}
			vecs, err := next.EmbedBatch(ctx, missTexts)
			if err != nil {
				return nil, err
			}
			if len(vecs) != len(missTexts) {
				return nil, fmt.Errorf("cache: backend returned %d embeddings for %d texts", len(vecs), len(missTexts))
			}
			for j, i := range missIdx {
				out[i] = vecs[j]
				_ = cache.Set(ctx, namespace+"\x00"+missTexts[j], vecs[j], ttl)
			}
			return out, nil
		})
	}
}

// InMemoryCache is a simple in-memory cache (for testing/single process).
type InMemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	val     []float64
	expires time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{store: make(map[string]cacheEntry)}
}

func (m *InMemoryCache) Get(ctx context.Context, key string) ([]float64, bool) {
	m.mu.RLock()
	e, ok := m.store[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return append([]float64(nil), e.val...), true
}

func (m *InMemoryCache) Set(ctx context.Context, key string, val []float64, ttl time.Duration) error {
	m.mu.Lock()
	m.store[key] = cacheEntry{val: append([]float64(nil), val...), expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *InMemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
