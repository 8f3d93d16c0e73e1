package results

import (
	"encoding/json"
	"math"
	"time"
)

// jsonFloat encodes NaN and infinities as null, since MSE over an empty dataset is NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// rowJSON is the wire form of Row used by the Redis store and the HTTP server.
type rowJSON struct {
	RunID        string    `json:"run_id,omitempty"`
	Evaluator    string    `json:"evaluator"`
	Precision    string    `json:"precision,omitempty"`
	Epoch        int       `json:"epoch"`
	Steps        int       `json:"steps"`
	MSECosine    jsonFloat `json:"mse_cosine"`
	MSEEuclidean jsonFloat `json:"mse_euclidean"`
	MSEManhattan jsonFloat `json:"mse_manhattan"`
	MSEDot       jsonFloat `json:"mse_dot"`
	Score        jsonFloat `json:"score"`
	At           string    `json:"at,omitempty"` // RFC3339Nano
}

func toJSON(r Row) rowJSON {
	out := rowJSON{
		RunID:        r.RunID,
		Evaluator:    r.Evaluator,
		Precision:    r.Precision,
		Epoch:        r.Epoch,
		Steps:        r.Steps,
		MSECosine:    jsonFloat(r.MSECosine),
		MSEEuclidean: jsonFloat(r.MSEEuclidean),
		MSEManhattan: jsonFloat(r.MSEManhattan),
		MSEDot:       jsonFloat(r.MSEDot),
		Score:        jsonFloat(r.Score),
	}
	if !r.At.IsZero() {
		out.At = r.At.Format(time.RFC3339Nano)
	}
	return out
}

// MarshalJSON encodes r in the same form the results server accepts.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(r))
}

func (r *Row) UnmarshalJSON(b []byte) error {
	var j rowJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*r = j.row()
	return nil
}

func (j rowJSON) row() Row {
	r := Row{
		RunID:        j.RunID,
		Evaluator:    j.Evaluator,
		Precision:    j.Precision,
		Epoch:        j.Epoch,
		Steps:        j.Steps,
		MSECosine:    float64(j.MSECosine),
		MSEEuclidean: float64(j.MSEEuclidean),
		MSEManhattan: float64(j.MSEManhattan),
		MSEDot:       float64(j.MSEDot),
		Score:        float64(j.Score),
	}
	if j.At != "" {
		r.At, _ = time.Parse(time.RFC3339Nano, j.At)
	}
	return r
}
