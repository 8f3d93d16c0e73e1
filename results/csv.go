package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CSVSink appends rows to a CSV file, writing Header first when the file does not exist.
// It assumes a single writer per file.
type CSVSink struct {
	Path string
}

// NewCSVSink returns a sink for dir/name.
func NewCSVSink(dir, name string) *CSVSink {
	return &CSVSink{Path: filepath.Join(dir, name)}
}

// Append implements Sink.
func (s *CSVSink) Append(ctx context.Context, r Row) error {
	exists := true
	if _, err := os.Stat(s.Path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		exists = false
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open results csv: %w", err)
	}
	w := csv.NewWriter(f)
	w.UseCRLF = true
	if !exists {
		if err := w.Write(Header); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Write(r.Record()); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
