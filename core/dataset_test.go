package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset_LengthMismatch(t *testing.T) {
	_, err := NewDataset([]string{"a", "b", "c"}, []string{"x", "y", "z"}, []float64{1, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "scores", ve.Field)

	_, err = NewDataset([]string{"a"}, nil, []float64{1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewDataset_Empty(t *testing.T) {
	d, err := NewDataset(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
}

func TestNewDataset_Copies(t *testing.T) {
	s1 := []string{"a"}
	scores := []float64{0.5}
	d, err := NewDataset(s1, []string{"b"}, scores)
	require.NoError(t, err)
	s1[0] = "changed"
	scores[0] = 9
	assert.Equal(t, "a", d.Sentences1[0])
	assert.Equal(t, 0.5, d.Scores[0])
}

func TestDatasetFromPairs(t *testing.T) {
	pairs := []Pair{NewPair("a", "b", 0.1), NewPair("c", "d", 0.9)}
	d := DatasetFromPairs(pairs)
	assert.Equal(t, []string{"a", "c"}, d.Sentences1)
	assert.Equal(t, []string{"b", "d"}, d.Sentences2)
	assert.Equal(t, []float64{0.1, 0.9}, d.Scores)
	assert.Equal(t, pairs, d.Pairs())
}

func TestLoadPairs_CSV(t *testing.T) {
	in := "sentence1,sentence2,score\n\"A man, smiling\",A man,4.5\nfoo,bar,0\n"
	pairs, err := LoadPairs(strings.NewReader(in), FormatCSV, LoadOptions{ScoreScale: 5})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "A man, smiling", pairs[0].Texts[0])
	assert.InDelta(t, 0.9, pairs[0].Label, 1e-12)
	assert.Equal(t, 0.0, pairs[1].Label)
}

func TestLoadPairs_TSVLabelColumn(t *testing.T) {
	in := "label\tsentence1\tsentence2\n0.25\tx\ty\n"
	pairs, err := LoadPairs(strings.NewReader(in), FormatTSV, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, NewPair("x", "y", 0.25), pairs[0])
}

func TestLoadPairs_BadHeader(t *testing.T) {
	_, err := LoadPairs(strings.NewReader("a,b\n1,2\n"), FormatCSV, LoadOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoadPairs_BadScore(t *testing.T) {
	_, err := LoadPairs(strings.NewReader("sentence1,sentence2,score\na,b,high\n"), FormatCSV, LoadOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoadPairs_JSONL(t *testing.T) {
	in := `{"sentence1":"a","sentence2":"b","score":1}

{"sentence1":"c","sentence2":"d","label":0.5}
`
	pairs, err := LoadPairs(strings.NewReader(in), FormatJSONL, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, 0.5, pairs[1].Label)

	_, err = LoadPairs(strings.NewReader(`{"sentence1":"a","sentence2":"b"}`), FormatJSONL, LoadOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("data/sts-dev.TSV")
	require.NoError(t, err)
	assert.Equal(t, FormatTSV, f)
	_, err = FormatFromPath("data.parquet")
	assert.ErrorIs(t, err, ErrConfig)
}
