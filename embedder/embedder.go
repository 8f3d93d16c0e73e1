// Package embedder defines the embedding model used by evaluators and its backends.
package embedder

import (
	"context"
	"fmt"

	"github.com/klejdi94/simeval/quantize"
	"go.uber.org/zap"
)

// DefaultBatchSize is used when EncodeOptions.BatchSize is not positive.
const DefaultBatchSize = 32

// EncodeOptions controls one Encode call.
type EncodeOptions struct {
	BatchSize int
	Precision quantize.Precision
	// Normalize scales every embedding to unit length before quantization.
	Normalize bool
	// Ranges calibrates int8/uint8 buckets; nil calibrates on the encoded batch.
	Ranges *quantize.Ranges
}

// Model turns sentences into embeddings. Row i of the result belongs to sentences[i].
type Model interface {
	Encode(ctx context.Context, sentences []string, opts EncodeOptions) ([][]float64, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, sentences []string, opts EncodeOptions) ([][]float64, error)

func (f ModelFunc) Encode(ctx context.Context, sentences []string, opts EncodeOptions) ([][]float64, error) {
	return f(ctx, sentences, opts)
}

// Backend produces float embeddings for one batch of texts.
type Backend interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// ProgressFunc is called after each batch with the number of sentences encoded so far.
type ProgressFunc func(done, total int)

// Encoder implements Model on top of a Backend: it batches requests, then normalizes
// and quantizes the concatenated result.
type Encoder struct {
	Backend  Backend
	Progress ProgressFunc
	logger   *zap.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) EncoderOption {
	return func(e *Encoder) {
		e.Progress = fn
	}
}

// WithEncoderLogger sets the logger used for per-batch debug output.
func WithEncoderLogger(l *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		e.logger = l
	}
}

// NewEncoder wraps b as a Model.
func NewEncoder(b Backend, opts ...EncoderOption) *Encoder {
	e := &Encoder{Backend: b, logger: zap.L()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode implements Model.
func (e *Encoder) Encode(ctx context.Context, sentences []string, opts EncodeOptions) ([][]float64, error) {
	if e.Backend == nil {
		return nil, fmt.Errorf("encoder: no backend configured")
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]float64, 0, len(sentences))
	for start := 0; start < len(sentences); start += size {
		end := min(start+size, len(sentences))
		vecs, err := e.Backend.EmbedBatch(ctx, sentences[start:end])
		if err != nil {
			return nil, fmt.Errorf("encode batch %d: %w", start/size, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("encode batch %d: backend returned %d embeddings for %d texts", start/size, len(vecs), end-start)
		}
		out = append(out, vecs...)
		e.logger.Debug("encoded batch", zap.Int("done", end), zap.Int("total", len(sentences)))
		if e.Progress != nil {
			e.Progress(end, len(sentences))
		}
	}
	if opts.Normalize {
		out = quantize.NormalizeRows(out)
	}
	if opts.Precision != quantize.None {
		return quantize.Quantize(out, opts.Precision, opts.Ranges)
	}
	return out, nil
}
