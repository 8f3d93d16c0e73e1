package core

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is a dataset file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSONL Format = "jsonl"
)

// LoadOptions controls how pair files are parsed.
type LoadOptions struct {
	// ScoreScale divides every gold score (e.g. 5 for STS-B's 0-5 scale). 0 or 1 leaves scores as-is.
	ScoreScale float64
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: unsupported dataset extension %q", ErrConfig, filepath.Ext(path))
}

// LoadPairsFile opens path and loads pairs using the format implied by its extension.
func LoadPairsFile(path string, opts LoadOptions) ([]Pair, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPairs(f, format, opts)
}

// LoadPairs reads pairs from r. Delimited files need a header with sentence1, sentence2
// and score (or label) columns; JSONL lines carry the same keys.
func LoadPairs(r io.Reader, format Format, opts LoadOptions) ([]Pair, error) {
	var (
		pairs []Pair
		err   error
	)
	switch format {
	case FormatCSV:
		pairs, err = loadDelimited(r, ',')
	case FormatTSV:
		pairs, err = loadDelimited(r, '\t')
	case FormatJSONL:
		pairs, err = loadJSONL(r)
	default:
		return nil, fmt.Errorf("%w: unsupported dataset format %q", ErrConfig, format)
	}
	if err != nil {
		return nil, err
	}
	if opts.ScoreScale != 0 && opts.ScoreScale != 1 {
		for i := range pairs {
			pairs[i].Label /= opts.ScoreScale
		}
	}
	return pairs, nil
}

func loadDelimited(r io.Reader, comma rune) ([]Pair, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	i1, ok1 := cols["sentence1"]
	i2, ok2 := cols["sentence2"]
	is, ok3 := cols["score"]
	if !ok3 {
		is, ok3 = cols["label"]
	}
	if !ok1 || !ok2 || !ok3 {
		return nil, &ValidationError{Field: "header", Value: header, Message: "need sentence1, sentence2 and score columns"}
	}
	var pairs []Pair
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= i1 || len(rec) <= i2 || len(rec) <= is {
			return nil, &ValidationError{Field: "row", Value: line, Message: "missing columns"}
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[is]), 64)
		if err != nil {
			return nil, &ValidationError{Field: "score", Value: rec[is], Message: fmt.Sprintf("line %d: not a number", line)}
		}
		pairs = append(pairs, NewPair(rec[i1], rec[i2], score))
	}
	return pairs, nil
}

type jsonPair struct {
	Sentence1 string   `json:"sentence1"`
	Sentence2 string   `json:"sentence2"`
	Score     *float64 `json:"score"`
	Label     *float64 `json:"label"`
}

func loadJSONL(r io.Reader) ([]Pair, error) {
	var pairs []Pair
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var jp jsonPair
		if err := json.Unmarshal([]byte(raw), &jp); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		score := jp.Score
		if score == nil {
			score = jp.Label
		}
		if score == nil {
			return nil, &ValidationError{Field: "score", Value: line, Message: "missing score"}
		}
		pairs = append(pairs, NewPair(jp.Sentence1, jp.Sentence2, *score))
	}
	return pairs, sc.Err()
}
