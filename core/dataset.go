package core

import "fmt"

// Pair is one labeled example: two texts and a gold similarity score.
type Pair struct {
	Texts [2]string
	Label float64
}

// NewPair builds a Pair from two sentences and a label.
func NewPair(s1, s2 string, label float64) Pair {
	return Pair{Texts: [2]string{s1, s2}, Label: label}
}

// Dataset holds three parallel sequences. Index i is one evaluation pair.
// The slices are owned by the Dataset and must not be modified by callers.
type Dataset struct {
	Sentences1 []string
	Sentences2 []string
	Scores     []float64
}

// NewDataset validates that all three sequences have the same length and copies them.
// An empty dataset is valid.
func NewDataset(sentences1, sentences2 []string, scores []float64) (*Dataset, error) {
	if len(sentences1) != len(sentences2) {
		return nil, &ValidationError{
			Field:   "sentences2",
			Value:   len(sentences2),
			Message: fmt.Sprintf("length %d does not match sentences1 length %d", len(sentences2), len(sentences1)),
		}
	}
	if len(sentences1) != len(scores) {
		return nil, &ValidationError{
			Field:   "scores",
			Value:   len(scores),
			Message: fmt.Sprintf("length %d does not match sentences1 length %d", len(scores), len(sentences1)),
		}
	}
	return &Dataset{
		Sentences1: append([]string(nil), sentences1...),
		Sentences2: append([]string(nil), sentences2...),
		Scores:     append([]float64(nil), scores...),
	}, nil
}

// DatasetFromPairs projects texts[0], texts[1] and the label of every pair.
func DatasetFromPairs(pairs []Pair) *Dataset {
	d := &Dataset{
		Sentences1: make([]string, len(pairs)),
		Sentences2: make([]string, len(pairs)),
		Scores:     make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		d.Sentences1[i] = p.Texts[0]
		d.Sentences2[i] = p.Texts[1]
		d.Scores[i] = p.Label
	}
	return d
}

// Len returns the number of pairs.
func (d *Dataset) Len() int {
	return len(d.Scores)
}

// Pairs returns the dataset as a slice of Pair.
func (d *Dataset) Pairs() []Pair {
	out := make([]Pair, d.Len())
	for i := range out {
		out[i] = NewPair(d.Sentences1[i], d.Sentences2[i], d.Scores[i])
	}
	return out
}
