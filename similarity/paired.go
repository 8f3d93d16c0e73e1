package similarity

import (
	"fmt"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/quantize"
	"gonum.org/v1/gonum/floats"
)

// PairedCosine returns 1 - cosine distance for each row pair.
// Rows are L2-normalized first; a zero row stays zero, so its similarity with a
// non-zero row is 0.5 and with another zero row is 1.
func PairedCosine(a, b [][]float64) ([]float64, error) {
	return paired(a, b, func(x, y []float64) float64 {
		d := floats.Distance(quantize.Normalize(x), quantize.Normalize(y), 2)
		return 1 - 0.5*d*d
	})
}

// PairedManhattan returns the negated L1 distance for each row pair.
func PairedManhattan(a, b [][]float64) ([]float64, error) {
	return paired(a, b, func(x, y []float64) float64 {
		return -floats.Distance(x, y, 1)
	})
}

// PairedEuclidean returns the negated L2 distance for each row pair.
func PairedEuclidean(a, b [][]float64) ([]float64, error) {
	return paired(a, b, func(x, y []float64) float64 {
		return -floats.Distance(x, y, 2)
	})
}

// PairedDot returns the dot product for each row pair.
func PairedDot(a, b [][]float64) ([]float64, error) {
	return paired(a, b, floats.Dot)
}

func paired(a, b [][]float64, fn func(x, y []float64) float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d rows vs %d rows", core.ErrDimensionMismatch, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return nil, fmt.Errorf("%w: row %d has %d vs %d dims", core.ErrDimensionMismatch, i, len(a[i]), len(b[i]))
		}
		out[i] = fn(a[i], b[i])
	}
	return out, nil
}
