// Package quantize converts float embeddings into the reduced-precision representations
// used for embedding evaluation, and unpacks bit-packed embeddings for distance math.
package quantize

import (
	"fmt"
	"strings"

	"github.com/klejdi94/simeval/core"
)

// Precision selects whether and how embeddings are quantized.
type Precision string

const (
	None    Precision = ""
	Float32 Precision = "float32"
	Int8    Precision = "int8"
	UInt8   Precision = "uint8"
	Binary  Precision = "binary"
	UBinary Precision = "ubinary"
)

// ParsePrecision maps a name to a Precision. "" and "none" mean no quantization.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "float32":
		return Float32, nil
	case "int8":
		return Int8, nil
	case "uint8":
		return UInt8, nil
	case "binary":
		return Binary, nil
	case "ubinary":
		return UBinary, nil
	}
	return None, fmt.Errorf("%w: %q", core.ErrUnknownPrecision, s)
}

func (p Precision) String() string {
	return string(p)
}

// Valid reports whether p is one of the six known modes.
func (p Precision) Valid() bool {
	switch p {
	case None, Float32, Int8, UInt8, Binary, UBinary:
		return true
	}
	return false
}

// Packed reports whether embeddings in this precision store 8 dimensions per value.
func (p Precision) Packed() bool {
	return p == Binary || p == UBinary
}
