package embedder

import (
	"context"
	"fmt"
)

// Static is an in-memory Backend that looks vectors up by exact text.
type Static struct {
	Vectors map[string][]float64
	// Default is returned for unknown texts; if nil, unknown texts are an error.
	Default []float64
	Err     error
}

// EmbedBatch implements Backend.
func (s *Static) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := s.Vectors[t]
		if !ok {
			if s.Default == nil {
				return nil, fmt.Errorf("static embedder: no vector for %q", t)
			}
			v = s.Default
		}
		out[i] = append([]float64(nil), v...)
	}
	return out, nil
}
