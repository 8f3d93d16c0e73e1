package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/embedder"
	"github.com/klejdi94/simeval/quantize"
	"github.com/klejdi94/simeval/results"
	"github.com/klejdi94/simeval/similarity"
	"go.uber.org/zap"
)

// DefaultBatchSize is the encode batch size used by MSESimilarity.
const DefaultBatchSize = 16

// MSESimilarity measures how well embedding similarities reproduce gold scores.
// For each pair it computes cosine similarity, negative Manhattan and Euclidean
// distance, and dot product, then the mean squared error of each against the
// labels. Lower is better.
type MSESimilarity struct {
	sentences1     []string
	sentences2     []string
	scores         []float64
	batchSize      int
	mainSimilarity similarity.Function
	name           string
	writeCSV       bool
	precision      quantize.Precision
	ranges         *quantize.Ranges
	sink           results.Sink
	logger         *zap.Logger
	csvFile        string
}

// Option configures an MSESimilarity.
type Option func(*MSESimilarity)

// WithBatchSize sets the encode batch size.
func WithBatchSize(n int) Option {
	return func(e *MSESimilarity) {
		e.batchSize = n
	}
}

// WithMainSimilarity selects which MSE Evaluate returns. None returns the minimum.
func WithMainSimilarity(fn similarity.Function) Option {
	return func(e *MSESimilarity) {
		e.mainSimilarity = fn
	}
}

// WithName sets the dataset name used in logs and the CSV file name.
func WithName(name string) Option {
	return func(e *MSESimilarity) {
		e.name = name
	}
}

// WithWriteCSV toggles the CSV results file.
func WithWriteCSV(on bool) Option {
	return func(e *MSESimilarity) {
		e.writeCSV = on
	}
}

// WithPrecision encodes with the given precision. Any precision other than None
// also normalizes embeddings.
func WithPrecision(p quantize.Precision) Option {
	return func(e *MSESimilarity) {
		e.precision = p
	}
}

// WithRanges fixes the int8/uint8 calibration ranges instead of deriving them per call.
func WithRanges(r *quantize.Ranges) Option {
	return func(e *MSESimilarity) {
		e.ranges = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *MSESimilarity) {
		e.logger = l
	}
}

// WithSink adds a sink that receives every result row, independent of the CSV file.
// Calling it more than once fans out to all sinks.
func WithSink(s results.Sink) Option {
	return func(e *MSESimilarity) {
		if e.sink == nil {
			e.sink = s
			return
		}
		e.sink = results.Multi(e.sink, s)
	}
}

// NewMSESimilarity creates an evaluator over parallel slices of sentences and scores.
func NewMSESimilarity(sentences1, sentences2 []string, scores []float64, opts ...Option) (*MSESimilarity, error) {
	ds, err := core.NewDataset(sentences1, sentences2, scores)
	if err != nil {
		return nil, err
	}
	e := &MSESimilarity{
		sentences1: ds.Sentences1,
		sentences2: ds.Sentences2,
		scores:     ds.Scores,
		batchSize:  DefaultBatchSize,
		writeCSV:   true,
		logger:     zap.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.precision.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownPrecision, string(e.precision))
	}
	e.csvFile = CSVFileName(e.name, e.precision)
	return e, nil
}

// MSESimilarityFromPairs creates an evaluator from labelled pairs.
func MSESimilarityFromPairs(pairs []core.Pair, opts ...Option) (*MSESimilarity, error) {
	ds := core.DatasetFromPairs(pairs)
	return NewMSESimilarity(ds.Sentences1, ds.Sentences2, ds.Scores, opts...)
}

// CSVFileName returns the results file name for a dataset name and precision.
func CSVFileName(name string, p quantize.Precision) string {
	f := "MSE_similarity_evaluation"
	if name != "" {
		f += "_" + name
	}
	if p != quantize.None {
		f += "_" + p.String()
	}
	return f + "_results.csv"
}

// Name returns the dataset name.
func (e *MSESimilarity) Name() string { return e.name }

// CSVFile returns the results file name written under the output path.
func (e *MSESimilarity) CSVFile() string { return e.csvFile }

// GreaterIsBetter is false: the score is an error.
func (e *MSESimilarity) GreaterIsBetter() bool { return false }

// Len returns the number of pairs.
func (e *MSESimilarity) Len() int { return len(e.scores) }

// Evaluate encodes both sides with model, scores every pair and returns the
// MSE chosen by the main similarity. When outputPath is set and CSV output is
// enabled, a row is appended to outputPath/CSVFile().
func (e *MSESimilarity) Evaluate(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (float64, error) {
	log := e.logger.With(zap.String("evaluator", e.name), zap.Int("epoch", epoch), zap.Int("steps", steps))
	log.Info("MSESimilarityEvaluator: Evaluating the model on " + e.name + " dataset" + epochText(epoch, steps))

	emb1, err := e.embed(ctx, model, e.sentences1)
	if err != nil {
		return 0, fmt.Errorf("sentences1: %w", err)
	}
	emb2, err := e.embed(ctx, model, e.sentences2)
	if err != nil {
		return 0, fmt.Errorf("sentences2: %w", err)
	}

	res, err := similarity.Compute(emb1, emb2, e.scores)
	if err != nil {
		return 0, err
	}
	log.Info("Cosine-Similarity", zap.Float64("mse", res.Cosine))
	log.Info("Manhattan-Distance", zap.Float64("mse", res.Manhattan))
	log.Info("Euclidean-Distance", zap.Float64("mse", res.Euclidean))
	log.Info("Dot-Product-Similarity", zap.Float64("mse", res.Dot))

	score, err := similarity.Select(res, e.mainSimilarity)
	if err != nil {
		return 0, err
	}

	row := results.Row{
		RunID:        uuid.NewString(),
		Evaluator:    e.name,
		Precision:    e.precision.String(),
		Epoch:        epoch,
		Steps:        steps,
		MSECosine:    res.Cosine,
		MSEEuclidean: res.Euclidean,
		MSEManhattan: res.Manhattan,
		MSEDot:       res.Dot,
		Score:        score,
		At:           time.Now().UTC(),
	}
	if outputPath != "" && e.writeCSV {
		if err := results.NewCSVSink(outputPath, e.csvFile).Append(ctx, row); err != nil {
			return 0, fmt.Errorf("write results: %w", err)
		}
	}
	if e.sink != nil {
		if err := e.sink.Append(ctx, row); err != nil {
			return 0, fmt.Errorf("record results: %w", err)
		}
	}
	return score, nil
}

// embed encodes sentences and, for packed precisions, unpacks them to one value per bit.
func (e *MSESimilarity) embed(ctx context.Context, model embedder.Model, sentences []string) ([][]float64, error) {
	opts := embedder.EncodeOptions{BatchSize: e.batchSize}
	if e.precision != quantize.None {
		opts.Precision = e.precision
		opts.Normalize = true
		opts.Ranges = e.ranges
	}
	embs, err := model.Encode(ctx, sentences, opts)
	if err != nil {
		return nil, err
	}
	if len(embs) != len(sentences) {
		return nil, fmt.Errorf("model returned %d embeddings for %d sentences", len(embs), len(sentences))
	}
	if e.precision.Packed() {
		return quantize.Unpack(embs, e.precision)
	}
	return embs, nil
}

func epochText(epoch, steps int) string {
	switch {
	case epoch == NoEpoch:
		return ":"
	case steps == NoSteps:
		return fmt.Sprintf(" after epoch %d:", epoch)
	default:
		return fmt.Sprintf(" in epoch %d after %d steps:", epoch, steps)
	}
}
