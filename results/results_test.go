package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestRow_Record(t *testing.T) {
	r := Row{Epoch: 2, Steps: -1, MSECosine: 0.25, MSEEuclidean: 1.5, MSEManhattan: 3, MSEDot: 1e-05}
	assert.Equal(t, []string{"2", "-1", "0.25", "1.5", "3", "1e-05"}, r.Record())
	assert.Equal(t, "NaN", Row{MSECosine: math.NaN()}.Record()[2])
}

func TestCSVSink_HeaderOnceThenRows(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir, "MSE_similarity_evaluation_results.csv")
	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, Row{Epoch: 0, Steps: -1, MSECosine: 0.1, MSEEuclidean: 0.2, MSEManhattan: 0.3, MSEDot: 0.4}))
	require.NoError(t, sink.Append(ctx, Row{Epoch: 1, Steps: -1, MSECosine: 0.5, MSEEuclidean: 0.6, MSEManhattan: 0.7, MSEDot: 0.8}))

	data, err := os.ReadFile(filepath.Join(dir, "MSE_similarity_evaluation_results.csv"))
	require.NoError(t, err)
	recs := readCSV(t, data)
	require.Len(t, recs, 3)
	assert.Equal(t, Header, recs[0])
	assert.Equal(t, []string{"0", "-1", "0.1", "0.2", "0.3", "0.4"}, recs[1])
	assert.Equal(t, []string{"1", "-1", "0.5", "0.6", "0.7", "0.8"}, recs[2])
}

func TestCSVSink_MissingDir(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "nope"), "x.csv")
	assert.Error(t, sink.Append(context.Background(), Row{}))
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Row{Evaluator: "sts", Precision: "int8", Score: 0.3, At: base.Add(2 * time.Hour)}))
	require.NoError(t, s.Record(ctx, Row{Evaluator: "sts", Score: 0.1, At: base}))
	require.NoError(t, s.Record(ctx, Row{Evaluator: "other", Score: 0.05, At: base.Add(time.Hour)}))

	rows, err := s.Query(ctx, Query{Evaluator: "sts"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.1, rows[0].Score)

	rows, err = s.Query(ctx, Query{Precision: "int8"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.Query(ctx, Query{From: base.Add(30 * time.Minute), To: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "other", rows[0].Evaluator)

	rows, err = s.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemoryStore_Bounded(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Row{Epoch: i}))
	}
	rows, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Epoch)
	assert.False(t, rows[0].At.IsZero())
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)
	best, ok := Best([]Row{{Epoch: 0, Score: 0.4}, {Epoch: 1, Score: math.NaN()}, {Epoch: 2, Score: 0.2}})
	require.True(t, ok)
	assert.Equal(t, 2, best.Epoch)
}

func TestMulti_JoinsErrors(t *testing.T) {
	var got []int
	ok := SinkFunc(func(ctx context.Context, r Row) error { got = append(got, r.Epoch); return nil })
	boom := errors.New("boom")
	bad := SinkFunc(func(ctx context.Context, r Row) error { return boom })
	err := Multi(bad, ok).Append(context.Background(), Row{Epoch: 7})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{7}, got)
	assert.NoError(t, Multi().Append(context.Background(), Row{}))
}

func TestStoreSink(t *testing.T) {
	s := NewMemoryStore(0)
	require.NoError(t, StoreSink(s).Append(context.Background(), Row{Evaluator: "x"}))
	rows, _ := s.Query(context.Background(), Query{})
	assert.Len(t, rows, 1)
}

func TestBlobSink(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore()
	sink := NewBlobSink(store, "/runs/", "MSE_similarity_evaluation_sts_results.csv")
	assert.Equal(t, "runs/MSE_similarity_evaluation_sts_results.csv", sink.Key())
	require.NoError(t, sink.Append(ctx, Row{Epoch: 0, Steps: 10, MSECosine: 1}))
	require.NoError(t, sink.Append(ctx, Row{Epoch: 1, Steps: 20, MSECosine: 2}))

	data, err := store.Get(ctx, sink.Key())
	require.NoError(t, err)
	recs := readCSV(t, data)
	require.Len(t, recs, 3)
	assert.Equal(t, Header, recs[0])
	assert.Equal(t, "20", recs[2][1])

	keys, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	require.NoError(t, store.Delete(ctx, sink.Key()))
	_, err = store.Get(ctx, sink.Key())
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

type failingBlobStore struct{ *MemoryBlobStore }

func (failingBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("access denied")
}

func TestBlobSink_GetError(t *testing.T) {
	sink := NewBlobSink(failingBlobStore{NewMemoryBlobStore()}, "", "x.csv")
	assert.Error(t, sink.Append(context.Background(), Row{}))
}

func TestJSONFloat_NaN(t *testing.T) {
	raw, err := json.Marshal(toJSON(Row{Evaluator: "e", MSECosine: math.NaN(), Score: 0.5}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mse_cosine":null`)
	var back rowJSON
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, math.IsNaN(back.row().MSECosine))
	assert.Equal(t, 0.5, back.row().Score)
}

func TestRow_JSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Row{Evaluator: "sts", Epoch: 2, Steps: -1, MSECosine: 0.25, MSEDot: math.Inf(1), Score: 0.25, At: at})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "sts", fields["evaluator"])
	assert.Equal(t, 0.25, fields["mse_cosine"])
	assert.Nil(t, fields["mse_dot"])
	assert.Equal(t, "2024-03-01T12:00:00Z", fields["at"])
	assert.NotContains(t, fields, "MSECosine")

	var back Row
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, 2, back.Epoch)
	assert.True(t, back.At.Equal(at))
	assert.True(t, math.IsNaN(back.MSEDot))
}

func TestServer_RecordAndQuery(t *testing.T) {
	store := NewMemoryStore(0)
	srv := httptest.NewServer(NewServer(store, "").Handler())
	defer srv.Close()
	ctx := context.Background()

	sink := NewHTTPSink(srv.URL + "/")
	require.NoError(t, sink.Append(ctx, Row{Evaluator: "sts", Epoch: 0, Score: 0.3}))
	require.NoError(t, sink.Append(ctx, Row{Evaluator: "sts", Epoch: 1, Score: 0.2}))

	resp, err := http.Get(srv.URL + "/rows?evaluator=sts")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rows rowsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows.Rows, 2)

	resp2, err := http.Get(srv.URL + "/best?evaluator=sts")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var best rowJSON
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&best))
	assert.Equal(t, 1, best.Epoch)

	resp3, err := http.Get(srv.URL + "/best?evaluator=missing")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	resp4, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusOK, resp4.StatusCode)
}

func TestServer_RecordUnnamedEvaluator(t *testing.T) {
	store := NewMemoryStore(0)
	srv := httptest.NewServer(NewServer(store, "").Handler())
	defer srv.Close()
	ctx := context.Background()

	require.NoError(t, NewHTTPSink(srv.URL).Append(ctx, Row{Epoch: -1, Steps: -1, Score: 0.4}))

	rows, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Evaluator)
	assert.Equal(t, 0.4, rows[0].Score)
}

func TestServer_BadJSON(t *testing.T) {
	srv := httptest.NewServer(NewServer(NewMemoryStore(0), ":0").Handler())
	defer srv.Close()
	resp, err := http.Post(srv.URL+"/rows", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
