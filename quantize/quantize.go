package quantize

import (
	"fmt"
	"math"

	"github.com/klejdi94/simeval/core"
	"gonum.org/v1/gonum/floats"
)

// Ranges holds per-dimension minimum and maximum values used to calibrate int8/uint8 buckets.
type Ranges struct {
	Min []float64
	Max []float64
}

// CalibrationRanges computes per-dimension min and max over embs. Returns nil for an empty batch.
func CalibrationRanges(embs [][]float64) *Ranges {
	if len(embs) == 0 {
		return nil
	}
	dim := len(embs[0])
	r := &Ranges{Min: make([]float64, dim), Max: make([]float64, dim)}
	copy(r.Min, embs[0])
	copy(r.Max, embs[0])
	for _, row := range embs[1:] {
		for d := 0; d < dim && d < len(row); d++ {
			r.Min[d] = math.Min(r.Min[d], row[d])
			r.Max[d] = math.Max(r.Max[d], row[d])
		}
	}
	return r
}

// Quantize converts embs to precision p. For int8/uint8 the buckets come from ranges,
// or from the batch itself when ranges is nil. Binary modes pack the sign bit of each
// dimension, 8 per output value; Binary additionally shifts the packed byte by -128.
func Quantize(embs [][]float64, p Precision, ranges *Ranges) ([][]float64, error) {
	if err := checkRectangular(embs); err != nil {
		return nil, err
	}
	switch p {
	case None:
		return embs, nil
	case Float32:
		return mapRows(embs, func(_ int, x float64) float64 { return float64(float32(x)) }), nil
	case Int8, UInt8:
		if len(embs) == 0 {
			return embs, nil
		}
		if ranges == nil {
			ranges = CalibrationRanges(embs)
		}
		if len(ranges.Min) != len(embs[0]) || len(ranges.Max) != len(embs[0]) {
			return nil, fmt.Errorf("%w: ranges cover %d dims, embeddings have %d", core.ErrDimensionMismatch, len(ranges.Min), len(embs[0]))
		}
		offset, lo, hi := 0.0, 0.0, 255.0
		if p == Int8 {
			offset, lo, hi = 128, -128, 127
		}
		return mapRows(embs, func(d int, x float64) float64 {
			step := (ranges.Max[d] - ranges.Min[d]) / 255
			if step == 0 {
				return lo
			}
			return clamp(math.Trunc((x-ranges.Min[d])/step-offset), lo, hi)
		}), nil
	case Binary, UBinary:
		out := make([][]float64, len(embs))
		for i, row := range embs {
			bits := make([]bool, len(row))
			for d, x := range row {
				bits[d] = x > 0
			}
			packed := PackBits(bits)
			out[i] = make([]float64, len(packed))
			for j, b := range packed {
				out[i][j] = float64(b)
				if p == Binary {
					out[i][j] -= 128
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownPrecision, string(p))
}

// Unpack turns packed Binary/UBinary embeddings into one 0/1 value per dimension.
// Binary values are first shifted by +128 back to unsigned bytes. Other precisions
// are returned unchanged.
func Unpack(embs [][]float64, p Precision) ([][]float64, error) {
	if !p.Packed() {
		return embs, nil
	}
	out := make([][]float64, len(embs))
	for i, row := range embs {
		packed := make([]uint8, len(row))
		for j, v := range row {
			if p == Binary {
				v += 128
			}
			if v < 0 || v > 255 || v != math.Trunc(v) {
				return nil, &core.ValidationError{
					Field:   "embedding",
					Value:   row[j],
					Message: fmt.Sprintf("row %d col %d is not a packed %s byte", i, j, p),
				}
			}
			packed[j] = uint8(v)
		}
		bits := UnpackBits(packed)
		out[i] = make([]float64, len(bits))
		for j, b := range bits {
			out[i][j] = float64(b)
		}
	}
	return out, nil
}

// PackBits packs bits into bytes, most significant bit first. The last byte is zero-padded.
func PackBits(bits []bool) []uint8 {
	out := make([]uint8, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

// UnpackBits expands each byte into its 8 bits, most significant bit first.
func UnpackBits(packed []uint8) []uint8 {
	out := make([]uint8, len(packed)*8)
	for i, b := range packed {
		for k := 0; k < 8; k++ {
			out[i*8+k] = (b >> (7 - uint(k))) & 1
		}
	}
	return out
}

// Normalize returns v scaled to unit L2 norm. A zero vector is returned as a zero vector.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return out
	}
	floats.ScaleTo(out, 1/norm, v)
	return out
}

// NormalizeRows applies Normalize to every row.
func NormalizeRows(embs [][]float64) [][]float64 {
	out := make([][]float64, len(embs))
	for i, row := range embs {
		out[i] = Normalize(row)
	}
	return out
}

func mapRows(embs [][]float64, fn func(d int, x float64) float64) [][]float64 {
	out := make([][]float64, len(embs))
	for i, row := range embs {
		out[i] = make([]float64, len(row))
		for d, x := range row {
			out[i][d] = fn(d, x)
		}
	}
	return out
}

func checkRectangular(embs [][]float64) error {
	for i := 1; i < len(embs); i++ {
		if len(embs[i]) != len(embs[0]) {
			return fmt.Errorf("%w: row %d has %d dims, row 0 has %d", core.ErrDimensionMismatch, i, len(embs[i]), len(embs[0]))
		}
	}
	return nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
