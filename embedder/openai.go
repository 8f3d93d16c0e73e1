package embedder

import (
	"context"
	"fmt"
	"os"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.SmallEmbedding3

// OpenAI is a Backend for the OpenAI embeddings API (or any compatible endpoint).
type OpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// OpenAIConfig configures the OpenAI backend. APIKey falls back to OPENAI_API_KEY.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("openai embedder: API key required")
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model, cfg.Dimensions), nil
}

// NewOpenAIWithClient uses an existing go-openai client.
func NewOpenAIWithClient(client *openai.Client, model string, dimensions int) *OpenAI {
	m := defaultOpenAIModel
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAI{client: client, model: m, dimensions: dimensions}
}

// EmbedBatch implements Backend.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      o.model,
		Dimensions: o.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			out[i][j] = float64(v)
		}
	}
	return out, nil
}
