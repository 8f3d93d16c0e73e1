// Command simeval evaluates an embedding model on labelled sentence pairs and queries past results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klejdi94/simeval/config"
	"github.com/klejdi94/simeval/results"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIMEVAL_CONFIG"), "YAML config file (or SIMEVAL_CONFIG env)")
	dataPath := flag.String("data", "", "Pairs file (.csv, .tsv, .jsonl) with sentence1, sentence2, score")
	format := flag.String("format", "", "Dataset format: csv, tsv, jsonl (default: from extension)")
	scoreScale := flag.Float64("score-scale", 0, "Divide gold scores by this value (e.g. 5 for STS-B)")
	backend := flag.String("backend", "", "Embedding backend: ollama, openai, cohere")
	model := flag.String("model", "", "Embedding model name")
	baseURL := flag.String("base-url", "", "Backend base URL (or OLLAMA_HOST for ollama)")
	dims := flag.Int("dimensions", 0, "Requested embedding dimensions (openai only)")
	name := flag.String("name", "", "Dataset name used in logs and the results file name")
	precision := flag.String("precision", "", "Embedding precision: float32, int8, uint8, binary, ubinary")
	mainSim := flag.String("main-similarity", "", "Score to return: cosine, euclidean, manhattan, dot (default: min)")
	batchSize := flag.Int("batch-size", 0, "Encode batch size")
	epoch := flag.Int("epoch", -1, "Training epoch recorded with the result (-1 = none)")
	steps := flag.Int("steps", -1, "Training steps recorded with the result (-1 = none)")
	output := flag.String("output", "", "Directory for the CSV results file (empty = no file)")
	noCSV := flag.Bool("no-csv", false, "Do not write the CSV results file")
	storeKind := flag.String("store", "", "Results store: none, postgres, redis")
	dsn := flag.String("dsn", "", "PostgreSQL DSN when store=postgres (or SIMEVAL_DSN env)")
	table := flag.String("table", "", "Postgres table when store=postgres")
	redisAddr := flag.String("redis", "", "Redis address when store=redis (or SIMEVAL_REDIS env)")
	redisKey := flag.String("redis-key", "", "Redis key for results (default: simeval:results)")
	s3Bucket := flag.String("s3-bucket", "", "Mirror the CSV results file to this S3 bucket")
	s3Prefix := flag.String("s3-prefix", "", "Key prefix inside the S3 bucket")
	s3Endpoint := flag.String("s3-endpoint", "", "Custom S3 endpoint (MinIO, LocalStack)")
	cacheRedis := flag.String("cache-redis", "", "Cache embeddings in this Redis instance")
	cacheTTL := flag.Duration("cache-ttl", 0, "Embedding cache TTL")
	batchTimeout := flag.Duration("batch-timeout", 0, "Timeout for each backend call (0 = none)")
	resultsURL := flag.String("results-url", "", "Post result rows to a results-server at this URL")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	dev := flag.Bool("dev", false, "Human-readable development logging")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Dataset.Path = *dataPath
		case "format":
			cfg.Dataset.Format = *format
		case "score-scale":
			cfg.Dataset.ScoreScale = *scoreScale
		case "backend":
			cfg.Backend.Kind = *backend
		case "model":
			cfg.Backend.Model = *model
		case "base-url":
			cfg.Backend.BaseURL = *baseURL
		case "dimensions":
			cfg.Backend.Dimensions = *dims
		case "name":
			cfg.Evaluator.Name = *name
		case "precision":
			cfg.Evaluator.Precision = *precision
		case "main-similarity":
			cfg.Evaluator.MainSimilarity = *mainSim
		case "batch-size":
			cfg.Evaluator.BatchSize = *batchSize
		case "epoch":
			cfg.Evaluator.Epoch = *epoch
		case "steps":
			cfg.Evaluator.Steps = *steps
		case "output":
			cfg.Output = *output
		case "no-csv":
			cfg.Evaluator.WriteCSV = !*noCSV
		case "store":
			cfg.Store.Kind = *storeKind
		case "dsn":
			cfg.Store.DSN = *dsn
		case "table":
			cfg.Store.Table = *table
		case "redis":
			cfg.Store.Redis = *redisAddr
		case "redis-key":
			cfg.Store.RedisKey = *redisKey
		case "s3-bucket":
			cfg.S3.Bucket = *s3Bucket
		case "s3-prefix":
			cfg.S3.Prefix = *s3Prefix
		case "s3-endpoint":
			cfg.S3.Endpoint = *s3Endpoint
		case "cache-redis":
			cfg.Cache.Redis = *cacheRedis
		case "cache-ttl":
			cfg.Cache.TTL = *cacheTTL
		case "batch-timeout":
			cfg.BatchTimeout = *batchTimeout
		case "results-url":
			cfg.ResultsURL = *resultsURL
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cfg.Store.OpenStore(ctx)
	if err != nil {
		logger.Fatal("open results store", zap.Error(err))
	}
	defer closeStore()

	cmd := args[0]
	switch cmd {
	case "eval":
		if err := runEval(ctx, cfg, store, logger); err != nil {
			logger.Error("evaluation failed", zap.Error(err))
			stop()
			os.Exit(1)
		}
	case "rows":
		rows(ctx, store, cfg.Evaluator.Name)
	case "best":
		best(ctx, store, cfg.Evaluator.Name)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: simeval [flags] <command>

Commands:
  eval     Evaluate the configured model on -data and print the main score
  rows     Print recorded result rows (requires -store postgres|redis)
  best     Print the row with the lowest score (requires -store postgres|redis)

Settings come from flags, then environment (SIMEVAL_DSN, SIMEVAL_REDIS, OLLAMA_HOST,
OPENAI_API_KEY, COHERE_API_KEY), then the -config YAML file, then defaults.
`)
	flag.PrintDefaults()
}

func queryRows(ctx context.Context, store results.Store, evaluator string) []results.Row {
	if store == nil {
		fmt.Fprintln(os.Stderr, "no results store configured (use -store)")
		os.Exit(1)
	}
	rs, err := store.Query(ctx, results.Query{Evaluator: evaluator})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return rs
}

func rows(ctx context.Context, store results.Store, evaluator string) {
	for _, r := range queryRows(ctx, store, evaluator) {
		fmt.Printf("%s\t%s\t%s\t%d\t%d\t%g\n", r.At.Format("2006-01-02T15:04:05Z07:00"), r.Evaluator, r.Precision, r.Epoch, r.Steps, r.Score)
	}
}

func best(ctx context.Context, store results.Store, evaluator string) {
	r, ok := results.Best(queryRows(ctx, store, evaluator))
	if !ok {
		fmt.Fprintln(os.Stderr, "no rows")
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
