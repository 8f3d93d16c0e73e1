package similarity

import (
	"fmt"
	"math"

	"github.com/klejdi94/simeval/core"
	"gonum.org/v1/gonum/stat"
)

// Result holds the MSE of each metric against the gold labels.
type Result struct {
	Cosine    float64
	Manhattan float64
	Euclidean float64
	Dot       float64
}

// MSE returns the mean of (pred[i]-labels[i])^2.
// It is NaN when there are no pairs.
func MSE(pred, labels []float64) float64 {
	sq := make([]float64, len(pred))
	for i := range pred {
		d := pred[i] - labels[i]
		sq[i] = d * d
	}
	return stat.Mean(sq, nil)
}

// Compute scores every pair under the four metrics and returns their MSE against labels.
func Compute(emb1, emb2 [][]float64, labels []float64) (Result, error) {
	if len(emb1) != len(labels) {
		return Result{}, fmt.Errorf("%w: %d embeddings for %d labels", core.ErrDimensionMismatch, len(emb1), len(labels))
	}
	cos, err := PairedCosine(emb1, emb2)
	if err != nil {
		return Result{}, err
	}
	man, err := PairedManhattan(emb1, emb2)
	if err != nil {
		return Result{}, err
	}
	euc, err := PairedEuclidean(emb1, emb2)
	if err != nil {
		return Result{}, err
	}
	dot, err := PairedDot(emb1, emb2)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Cosine:    MSE(cos, labels),
		Manhattan: MSE(man, labels),
		Euclidean: MSE(euc, labels),
		Dot:       MSE(dot, labels),
	}, nil
}

// Min returns the smallest of the four values, or NaN if any is NaN.
func (r Result) Min() float64 {
	return math.Min(math.Min(r.Cosine, r.Manhattan), math.Min(r.Euclidean, r.Dot))
}

// Select returns the MSE for fn. None selects the minimum.
func Select(r Result, fn Function) (float64, error) {
	switch fn {
	case Cosine:
		return r.Cosine, nil
	case Euclidean:
		return r.Euclidean, nil
	case Manhattan:
		return r.Manhattan, nil
	case DotProduct:
		return r.Dot, nil
	case None:
		return r.Min(), nil
	default:
		return 0, fmt.Errorf("%w: unknown main similarity %q", core.ErrConfig, string(fn))
	}
}
