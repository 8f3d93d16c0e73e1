// Package evaluator scores sentence-embedding models against labelled sentence pairs.
package evaluator

import (
	"context"

	"github.com/klejdi94/simeval/embedder"
)

// Sentinels for Evaluate when no training context is available.
const (
	NoEpoch = -1
	NoSteps = -1
)

// SentenceEvaluator evaluates a model and returns its main score.
// outputPath may be empty, in which case nothing is written to disk.
type SentenceEvaluator interface {
	Evaluate(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (float64, error)
	Name() string
	// GreaterIsBetter reports whether a higher main score means a better model.
	GreaterIsBetter() bool
}

// Func adapts a function to SentenceEvaluator.
type Func struct {
	Label  string
	Higher bool
	Fn     func(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (float64, error)
}

func (f Func) Evaluate(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (float64, error) {
	return f.Fn(ctx, model, outputPath, epoch, steps)
}

func (f Func) Name() string { return f.Label }

func (f Func) GreaterIsBetter() bool { return f.Higher }
