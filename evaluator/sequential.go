package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/klejdi94/simeval/embedder"
)

// MainScoreFunc picks the suite's main score from the per-evaluator scores.
type MainScoreFunc func(scores []float64) float64

// LastScore returns the last score, or 0 when there are none.
func LastScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return scores[len(scores)-1]
}

// Sequential runs several evaluators against the same model, one after another.
type Sequential struct {
	name  string
	evals []SentenceEvaluator
	main  MainScoreFunc
}

// NewSequential creates a suite with the given name.
func NewSequential(name string, evals ...SentenceEvaluator) *Sequential {
	return &Sequential{name: name, evals: evals, main: LastScore}
}

// Add appends an evaluator.
func (s *Sequential) Add(ev SentenceEvaluator) *Sequential {
	s.evals = append(s.evals, ev)
	return s
}

// WithMainScore sets how the main score is derived.
func (s *Sequential) WithMainScore(fn MainScoreFunc) *Sequential {
	s.main = fn
	return s
}

// Report holds the results of running a suite.
type Report struct {
	Suite     string
	Epoch     int
	Steps     int
	MainScore float64
	Results   []Result
	Duration  time.Duration
}

// Result is the outcome of one evaluator.
type Result struct {
	Evaluator       string
	Score           float64
	GreaterIsBetter bool
	Duration        time.Duration
}

// Run evaluates every evaluator in order. The first error aborts the run.
func (s *Sequential) Run(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (*Report, error) {
	start := time.Now()
	report := &Report{
		Suite:   s.name,
		Epoch:   epoch,
		Steps:   steps,
		Results: make([]Result, 0, len(s.evals)),
	}
	scores := make([]float64, 0, len(s.evals))
	for i, ev := range s.evals {
		evStart := time.Now()
		score, err := ev.Evaluate(ctx, model, outputPath, epoch, steps)
		if err != nil {
			return nil, fmt.Errorf("evaluator %d (%s): %w", i, ev.Name(), err)
		}
		scores = append(scores, score)
		report.Results = append(report.Results, Result{
			Evaluator:       ev.Name(),
			Score:           score,
			GreaterIsBetter: ev.GreaterIsBetter(),
			Duration:        time.Since(evStart),
		})
	}
	report.MainScore = s.main(scores)
	report.Duration = time.Since(start)
	return report, nil
}

// Evaluate implements SentenceEvaluator so suites can nest.
func (s *Sequential) Evaluate(ctx context.Context, model embedder.Model, outputPath string, epoch, steps int) (float64, error) {
	r, err := s.Run(ctx, model, outputPath, epoch, steps)
	if err != nil {
		return 0, err
	}
	return r.MainScore, nil
}

// Name returns the suite name.
func (s *Sequential) Name() string { return s.name }

// GreaterIsBetter follows the last evaluator, matching the default main score.
func (s *Sequential) GreaterIsBetter() bool {
	if len(s.evals) == 0 {
		return true
	}
	return s.evals[len(s.evals)-1].GreaterIsBetter()
}
