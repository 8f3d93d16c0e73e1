// Package results persists evaluation rows: the append-only CSV log plus optional
// Postgres, Redis, blob-store and HTTP backends.
package results

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"
)

// Header is the CSV header row. Column order is fixed for compatibility.
var Header = []string{"epoch", "steps", "MSE_cosine", "MSE_euclidean", "MSE_manhattan", "MSE_dot"}

// Row is one evaluation result. Only Epoch, Steps and the four MSE values go to CSV;
// the remaining fields are kept by stores that support querying.
type Row struct {
	RunID        string
	Evaluator    string
	Precision    string
	Epoch        int
	Steps        int
	MSECosine    float64
	MSEEuclidean float64
	MSEManhattan float64
	MSEDot       float64
	// Score is the value the evaluator returned for this run.
	Score float64
	At    time.Time
}

// Record returns the CSV fields in Header order.
func (r Row) Record() []string {
	return []string{
		strconv.Itoa(r.Epoch),
		strconv.Itoa(r.Steps),
		formatFloat(r.MSECosine),
		formatFloat(r.MSEEuclidean),
		formatFloat(r.MSEManhattan),
		formatFloat(r.MSEDot),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Sink receives rows.
type Sink interface {
	Append(ctx context.Context, r Row) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Row) error

func (f SinkFunc) Append(ctx context.Context, r Row) error {
	return f(ctx, r)
}

type multiSink []Sink

// Multi fans a row out to every sink. All sinks are attempted; errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Append(ctx context.Context, r Row) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Best returns the row with the lowest Score. NaN scores are skipped.
func Best(rows []Row) (Row, bool) {
	var best Row
	found := false
	for _, r := range rows {
		if math.IsNaN(r.Score) {
			continue
		}
		if !found || r.Score < best.Score {
			best, found = r, true
		}
	}
	return best, found
}
