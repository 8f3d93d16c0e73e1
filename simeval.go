// Package simeval measures how well the similarities of a sentence-embedding model
// reproduce gold similarity scores. For every labelled pair it computes cosine
// similarity, negative Manhattan and Euclidean distance, and dot product, and
// reports the mean squared error of each against the labels (lower is better).
//
// Quick start:
//
//	model := simeval.NewModel(embedder.NewOllama(embedder.OllamaConfig{}))
//	ev, err := simeval.FromPairs([]simeval.Pair{
//		simeval.NewPair("A man is playing a guitar.", "A person plays guitar.", 0.9),
//		simeval.NewPair("A cat sleeps.", "The stock market fell.", 0.0),
//	}, evaluator.WithName("sts-dev"))
//	score, err := ev.Evaluate(ctx, model, "results", simeval.NoEpoch, simeval.NoSteps)
package simeval

import (
	"context"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/embedder"
	"github.com/klejdi94/simeval/evaluator"
	"github.com/klejdi94/simeval/quantize"
	"github.com/klejdi94/simeval/similarity"
)

type (
	Pair      = core.Pair
	Model     = embedder.Model
	Precision = quantize.Precision
	Function  = similarity.Function
	Evaluator = evaluator.MSESimilarity
)

// Embedding precisions.
const (
	PrecisionNone    = quantize.None
	PrecisionFloat32 = quantize.Float32
	PrecisionInt8    = quantize.Int8
	PrecisionUInt8   = quantize.UInt8
	PrecisionBinary  = quantize.Binary
	PrecisionUBinary = quantize.UBinary
)

// Main similarity selectors.
const (
	Cosine     = similarity.Cosine
	Euclidean  = similarity.Euclidean
	Manhattan  = similarity.Manhattan
	DotProduct = similarity.DotProduct
)

// No training context.
const (
	NoEpoch = evaluator.NoEpoch
	NoSteps = evaluator.NoSteps
)

// NewPair creates a labelled sentence pair.
func NewPair(s1, s2 string, label float64) Pair {
	return core.NewPair(s1, s2, label)
}

// New creates an evaluator over parallel slices.
func New(sentences1, sentences2 []string, scores []float64, opts ...evaluator.Option) (*Evaluator, error) {
	return evaluator.NewMSESimilarity(sentences1, sentences2, scores, opts...)
}

// FromPairs creates an evaluator from labelled pairs.
func FromPairs(pairs []Pair, opts ...evaluator.Option) (*Evaluator, error) {
	return evaluator.MSESimilarityFromPairs(pairs, opts...)
}

// NewModel wraps a backend in a batching, quantizing Encoder.
func NewModel(b embedder.Backend) Model {
	return embedder.NewEncoder(b)
}

// Evaluate scores model on pairs without writing any results file.
func Evaluate(ctx context.Context, model Model, pairs []Pair, opts ...evaluator.Option) (float64, error) {
	opts = append(opts, evaluator.WithWriteCSV(false))
	ev, err := FromPairs(pairs, opts...)
	if err != nil {
		return 0, err
	}
	return ev.Evaluate(ctx, model, "", NoEpoch, NoSteps)
}
