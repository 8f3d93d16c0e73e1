// Command results-server exposes the results store over HTTP (POST /rows, GET /rows, GET /best, GET /health).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/klejdi94/simeval/config"
	"github.com/klejdi94/simeval/results"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	storeKind := flag.String("store", config.StoreMemory, "Store: memory, postgres, redis")
	maxRows := flag.Int("max", 100000, "Max in-memory rows when store=memory (0 = unbounded)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN when store=postgres (or SIMEVAL_DSN env)")
	redisAddr := flag.String("redis", "", "Redis address when store=redis (e.g. localhost:6379, or SIMEVAL_REDIS env)")
	redisKey := flag.String("redis-key", "", "Redis key for results (default: simeval:results)")
	pgTable := flag.String("table", "simeval_results", "Postgres table name when store=postgres")
	logLevel := flag.String("log-level", "info", "Log level")
	dev := flag.Bool("dev", false, "Human-readable development logging")
	flag.Parse()

	logger, err := config.NewLogger(*logLevel, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	sc := config.Store{Kind: *storeKind, DSN: *dsn, Table: *pgTable, Redis: *redisAddr, RedisKey: *redisKey, Max: *maxRows}
	if v := os.Getenv("SIMEVAL_DSN"); v != "" && sc.DSN == "" {
		sc.DSN = v
	}
	if v := os.Getenv("SIMEVAL_REDIS"); v != "" && sc.Redis == "" {
		sc.Redis = v
	}
	store, closeStore, err := sc.RequireStore(context.Background())
	if err != nil {
		logger.Fatal("open store", zap.String("store", sc.Kind), zap.Error(err))
	}
	defer closeStore()

	srv := results.NewServer(store, *addr)
	srv.Logger = logger
	logger.Info("results server listening", zap.String("addr", *addr), zap.String("store", sc.Kind))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
