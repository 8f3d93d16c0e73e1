// Package similarity computes paired similarity scores between two embedding batches
// and their mean squared error against gold labels.
package similarity

import (
	"fmt"
	"strings"

	"github.com/klejdi94/simeval/core"
)

// Function selects which metric's MSE is reported as the evaluation score.
type Function string

const (
	// None reports the minimum MSE across all four metrics.
	None       Function = ""
	Cosine     Function = "cosine"
	Euclidean  Function = "euclidean"
	Manhattan  Function = "manhattan"
	DotProduct Function = "dot"
)

// ParseFunction maps a selector name to a Function.
func ParseFunction(s string) (Function, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "cosine":
		return Cosine, nil
	case "euclidean":
		return Euclidean, nil
	case "manhattan":
		return Manhattan, nil
	case "dot", "dot_product":
		return DotProduct, nil
	}
	return None, fmt.Errorf("%w: unknown main similarity %q", core.ErrConfig, s)
}

func (f Function) String() string {
	if f == None {
		return "none"
	}
	return string(f)
}
