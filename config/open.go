package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/results"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenStore opens the configured results store. It returns a nil Store for kind none.
// The caller must call the returned close func; it is never nil. Postgres needs a
// driver registered under "postgres" (github.com/lib/pq in the binaries).
func (s Store) OpenStore(ctx context.Context) (results.Store, func() error, error) {
	noop := func() error { return nil }
	switch s.Kind {
	case "", StoreNone:
		return nil, noop, nil
	case StoreMemory:
		return results.NewMemoryStore(s.Max), noop, nil
	case StorePostgres:
		if s.DSN == "" {
			return nil, noop, &core.ValidationError{Field: "store.dsn", Message: "postgres store requires a DSN (or SIMEVAL_DSN)"}
		}
		db, err := sql.Open("postgres", s.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		pg, err := results.NewPostgresStore(ctx, db, s.Table)
		if err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("postgres store: %w", err)
		}
		return pg, db.Close, nil
	case StoreRedis:
		if s.Redis == "" {
			return nil, noop, &core.ValidationError{Field: "store.redis", Message: "redis store requires an address (or SIMEVAL_REDIS)"}
		}
		rdb := redis.NewClient(&redis.Options{Addr: s.Redis})
		return results.NewRedisStore(rdb, s.RedisKey), rdb.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown store %q", core.ErrConfig, s.Kind)
	}
}

// RequireStore is OpenStore for callers that cannot run without a store.
// An empty kind or none is a validation error.
func (s Store) RequireStore(ctx context.Context) (results.Store, func() error, error) {
	if s.Kind == "" || s.Kind == StoreNone {
		return nil, func() error { return nil }, &core.ValidationError{Field: "store.kind", Message: "a results store is required"}
	}
	return s.OpenStore(ctx)
}

// NewLogger builds a zap logger at level. dev selects the console encoder.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("%w: log level: %v", core.ErrConfig, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
