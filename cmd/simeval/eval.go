package main

import (
	"context"
	"fmt"
	"os"

	"github.com/klejdi94/simeval/config"
	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/embedder"
	"github.com/klejdi94/simeval/evaluator"
	"github.com/klejdi94/simeval/middleware"
	"github.com/klejdi94/simeval/results"
	"github.com/klejdi94/simeval/results/s3blob"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func runEval(ctx context.Context, cfg config.Config, store results.Store, logger *zap.Logger) error {
	pairs, err := loadPairs(cfg.Dataset)
	if err != nil {
		return err
	}
	ev, err := newEvaluator(ctx, cfg, pairs, store, logger)
	if err != nil {
		return err
	}
	model, counters, closeModel, err := newModel(cfg, logger)
	if err != nil {
		return err
	}
	defer closeModel()

	score, err := ev.Evaluate(ctx, model, cfg.Output, cfg.Evaluator.Epoch, cfg.Evaluator.Steps)
	logger.Info("backend usage", counters.Fields()...)
	if err != nil {
		return err
	}
	fmt.Println(score)
	return nil
}

func loadPairs(ds config.Dataset) ([]core.Pair, error) {
	if ds.Path == "" {
		return nil, fmt.Errorf("%w: no dataset (use -data)", core.ErrConfig)
	}
	opts := core.LoadOptions{ScoreScale: ds.ScoreScale}
	if ds.Format == "" {
		return core.LoadPairsFile(ds.Path, opts)
	}
	f, err := os.Open(ds.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return core.LoadPairs(f, core.Format(ds.Format), opts)
}

func newEvaluator(ctx context.Context, cfg config.Config, pairs []core.Pair, store results.Store, logger *zap.Logger) (*evaluator.MSESimilarity, error) {
	prec, err := cfg.Precision()
	if err != nil {
		return nil, err
	}
	fn, err := cfg.MainSimilarity()
	if err != nil {
		return nil, err
	}
	opts := []evaluator.Option{
		evaluator.WithName(cfg.Evaluator.Name),
		evaluator.WithPrecision(prec),
		evaluator.WithMainSimilarity(fn),
		evaluator.WithBatchSize(cfg.Evaluator.BatchSize),
		evaluator.WithWriteCSV(cfg.Evaluator.WriteCSV),
		evaluator.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, evaluator.WithSink(results.StoreSink(store)))
	}
	if cfg.ResultsURL != "" {
		opts = append(opts, evaluator.WithSink(results.NewHTTPSink(cfg.ResultsURL)))
	}
	if cfg.S3.Bucket != "" {
		blobs, err := s3blob.NewFromConfig(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		opts = append(opts, evaluator.WithSink(results.NewBlobSink(blobs, "", evaluator.CSVFileName(cfg.Evaluator.Name, prec))))
	}
	return evaluator.MSESimilarityFromPairs(pairs, opts...)
}

func newModel(cfg config.Config, logger *zap.Logger) (embedder.Model, *middleware.MetricsCounters, func() error, error) {
	backend, err := embedder.NewBackend(cfg.Backend)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() error { return nil }
	if cfg.Cache.Redis != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis})
		ns := cfg.Cache.Namespace
		if ns == "" {
			ns = cfg.Backend.Kind + ":" + cfg.Backend.Model
		}
		backend = embedder.NewRedisCache(rdb, backend, ns, cfg.Cache.TTL)
		closeFn = rdb.Close
	}
	metrics, counters := middleware.Metrics()
	backend = middleware.Chain(backend,
		// sentences repeat across both sides of a dataset
		middleware.CacheMiddleware(middleware.NewInMemoryCache(), cfg.Backend.Model, 0),
		metrics,
		middleware.Logging(logger),
		middleware.Timeout(cfg.BatchTimeout),
	)
	return embedder.NewEncoder(backend, embedder.WithEncoderLogger(logger)), counters, closeFn, nil
}
