package similarity

import (
	"math"
	"testing"

	"github.com/klejdi94/simeval/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunction(t *testing.T) {
	cases := map[string]Function{
		"":            None,
		"none":        None,
		"Cosine":      Cosine,
		"euclidean":   Euclidean,
		"manhattan":   Manhattan,
		"dot":         DotProduct,
		"dot_product": DotProduct,
	}
	for in, want := range cases {
		got, err := ParseFunction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFunction("jaccard")
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "dot", DotProduct.String())
}

func TestPairedMetrics(t *testing.T) {
	a := [][]float64{{1, 0}, {1, 2}}
	b := [][]float64{{0, 1}, {4, 6}}

	cos, err := PairedCosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cos[0], 1e-12)
	assert.InDelta(t, (4+12)/(math.Sqrt(5)*math.Sqrt(52)), cos[1], 1e-12)

	man, err := PairedManhattan(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -7}, man)

	euc, err := PairedEuclidean(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt2, euc[0], 1e-12)
	assert.InDelta(t, -5.0, euc[1], 1e-12)

	dot, err := PairedDot(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 16}, dot)
}

func TestPairedCosine_ZeroVectors(t *testing.T) {
	cos, err := PairedCosine([][]float64{{0, 0}, {0, 0}}, [][]float64{{0, 0}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, cos)
}

func TestPairedMetrics_Mismatch(t *testing.T) {
	_, err := PairedDot([][]float64{{1}}, [][]float64{{1}, {2}})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	_, err = PairedManhattan([][]float64{{1, 2}}, [][]float64{{1}})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestNegatedDistances_NonIncreasing(t *testing.T) {
	origin := [][]float64{{0, 0, 0}}
	prevMan, prevEuc := math.Inf(1), math.Inf(1)
	for _, r := range []float64{0, 0.5, 1, 2, 10} {
		p := [][]float64{{r, r / 2, -r}}
		man, err := PairedManhattan(origin, p)
		require.NoError(t, err)
		euc, err := PairedEuclidean(origin, p)
		require.NoError(t, err)
		assert.LessOrEqual(t, man[0], prevMan)
		assert.LessOrEqual(t, euc[0], prevEuc)
		prevMan, prevEuc = man[0], euc[0]
	}
}

func TestMSE(t *testing.T) {
	assert.InDelta(t, (0.25+1)/2, MSE([]float64{0.5, 2}, []float64{1, 1}), 1e-12)
	assert.True(t, math.IsNaN(MSE(nil, nil)))
}

func TestCompute(t *testing.T) {
	emb1 := [][]float64{{1, 0}, {0, 1}}
	emb2 := [][]float64{{1, 0}, {1, 0}}
	labels := []float64{1, 0}
	r, err := Compute(emb1, emb2, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r.Cosine, 1e-12)
	assert.InDelta(t, 0.0, r.Dot, 1e-12)
	// manhattan: [0, -2] -> ((0-1)^2 + (-2)^2)/2
	assert.InDelta(t, 2.5, r.Manhattan, 1e-12)
	// euclidean: [0, -sqrt2] -> (1 + 2)/2
	assert.InDelta(t, 1.5, r.Euclidean, 1e-12)
	for _, v := range []float64{r.Cosine, r.Manhattan, r.Euclidean, r.Dot} {
		assert.GreaterOrEqual(t, v, 0.0)
	}

	_, err = Compute(emb1, emb2, []float64{1})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestCompute_Empty(t *testing.T) {
	r, err := Compute(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r.Cosine))
	assert.True(t, math.IsNaN(r.Min()))
}

func TestSelect(t *testing.T) {
	r := Result{Cosine: 0.4, Manhattan: 0.3, Euclidean: 0.2, Dot: 0.5}
	got, err := Select(r, Cosine)
	require.NoError(t, err)
	assert.Equal(t, 0.4, got)
	got, err = Select(r, Manhattan)
	require.NoError(t, err)
	assert.Equal(t, 0.3, got)
	got, err = Select(r, Euclidean)
	require.NoError(t, err)
	assert.Equal(t, 0.2, got)
	got, err = Select(r, DotProduct)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
	got, err = Select(r, None)
	require.NoError(t, err)
	assert.Equal(t, 0.2, got)

	_, err = Select(r, Function("jaccard"))
	assert.ErrorIs(t, err, core.ErrConfig)
}
