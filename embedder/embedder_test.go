package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/quantize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	calls [][]string
	dim   int
}

func (c *countingBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	c.calls = append(c.calls, append([]string(nil), texts...))
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = make([]float64, c.dim)
		out[i][0] = float64(len(t))
		out[i][1] = -1
	}
	return out, nil
}

func TestEncoder_BatchesAndKeepsOrder(t *testing.T) {
	b := &countingBackend{dim: 8}
	var progress []int
	enc := NewEncoder(b, WithProgress(func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	}))
	out, err := enc.Encode(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"}, EncodeOptions{BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Len(t, b.calls, 3)
	assert.Equal(t, []string{"eeeee"}, b.calls[2])
	for i := range out {
		assert.Equal(t, float64(i+1), out[i][0])
	}
	assert.Equal(t, []int{2, 4, 5}, progress)
}

func TestEncoder_DefaultBatchSize(t *testing.T) {
	b := &countingBackend{dim: 2}
	texts := make([]string, DefaultBatchSize+1)
	_, err := NewEncoder(b).Encode(context.Background(), texts, EncodeOptions{})
	require.NoError(t, err)
	assert.Len(t, b.calls, 2)
}

func TestEncoder_Empty(t *testing.T) {
	b := &countingBackend{dim: 2}
	out, err := NewEncoder(b).Encode(context.Background(), nil, EncodeOptions{Precision: quantize.Binary, Normalize: true})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, b.calls)
}

func TestEncoder_NormalizeAndQuantize(t *testing.T) {
	b := &countingBackend{dim: 8}
	out, err := NewEncoder(b).Encode(context.Background(), []string{"abc"}, EncodeOptions{Normalize: true, Precision: quantize.UBinary})
	require.NoError(t, err)
	// bits: [+, -, 0, 0, 0, 0, 0, 0] -> 0b10000000
	assert.Equal(t, [][]float64{{128}}, out)

	out, err = NewEncoder(b).Encode(context.Background(), []string{"abc"}, EncodeOptions{Normalize: true})
	require.NoError(t, err)
	assert.InDelta(t, 3/math.Sqrt(10), out[0][0], 1e-12)
	var sum float64
	for _, v := range out[0] {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestEncoder_PropagatesBackendError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEncoder(&Static{Err: boom}).Encode(context.Background(), []string{"x"}, EncodeOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestEncoder_ShortResponse(t *testing.T) {
	m := ModelFunc(func(ctx context.Context, s []string, o EncodeOptions) ([][]float64, error) { return nil, nil })
	_, err := m.Encode(context.Background(), nil, EncodeOptions{})
	require.NoError(t, err)

	short := backendFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
		return [][]float64{{1}}, nil
	})
	_, err = NewEncoder(short).Encode(context.Background(), []string{"a", "b"}, EncodeOptions{})
	assert.Error(t, err)
}

type backendFunc func(ctx context.Context, texts []string) ([][]float64, error)

func (f backendFunc) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}

func TestStatic(t *testing.T) {
	s := &Static{Vectors: map[string][]float64{"a": {1, 0}}}
	out, err := s.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	out[0][0] = 5
	assert.Equal(t, 1.0, s.Vectors["a"][0])
	_, err = s.EmbedBatch(context.Background(), []string{"b"})
	assert.Error(t, err)
	s.Default = []float64{0, 1}
	out, err = s.EmbedBatch(context.Background(), []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, out[0])
}

func TestOllama_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		resp := ollamaEmbedResp{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	o := NewOllama(OllamaConfig{BaseURL: srv.URL + "/", Model: "all-minilm"})
	out, err := o.EmbedBatch(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {1, 1}}, out)
}

func TestOllama_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()
	_, err := NewOllama(OllamaConfig{BaseURL: srv.URL}).EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCohere_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req cohereEmbedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"float"}, req.EmbeddingTypes)
		assert.Equal(t, defaultCohereInputType, req.InputType)
		w.Write([]byte(`{"embeddings":{"float":[[0.5,0.5]]}}`))
	}))
	defer srv.Close()

	c, err := NewCohere(CohereConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := c.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5, 0.5}}, out)
}

func TestCohere_RequiresKey(t *testing.T) {
	t.Setenv("COHERE_API_KEY", "")
	_, err := NewCohere(CohereConfig{})
	assert.Error(t, err)
}

func TestOpenAI_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := o.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, out)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(BackendConfig{Kind: "ollama", BaseURL: "http://ollama:11434/", Model: "m"})
	require.NoError(t, err)
	o, ok := b.(*Ollama)
	require.True(t, ok)
	assert.Equal(t, "http://ollama:11434", o.BaseURL)

	b, err = NewBackend(BackendConfig{Kind: "OpenAI", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, b)

	b, err = NewBackend(BackendConfig{Kind: "cohere", APIKey: "co-test"})
	require.NoError(t, err)
	assert.IsType(t, &Cohere{}, b)

	_, err = NewBackend(BackendConfig{Kind: "word2vec"})
	assert.ErrorIs(t, err, core.ErrConfig)
}
