package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	defaultOllamaBase  = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// Ollama is a Backend that calls the Ollama /api/embed endpoint.
type Ollama struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OllamaConfig configures the Ollama backend. BaseURL falls back to OLLAMA_HOST.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewOllama creates an Ollama backend (no API key required).
func NewOllama(cfg OllamaConfig) *Ollama {
	base := cfg.BaseURL
	if base == "" {
		base = os.Getenv("OLLAMA_HOST")
	}
	if base == "" {
		base = defaultOllamaBase
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{
		BaseURL:    strings.TrimSuffix(base, "/"),
		Model:      model,
		HTTPClient: client,
	}
}

type ollamaEmbedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResp struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// EmbedBatch implements Backend.
func (c *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(ollamaEmbedReq{Model: c.Model, Input: texts}); err != nil {
		return nil, fmt.Errorf("ollama encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/embed", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api error %d: %s", resp.StatusCode, string(bs))
	}
	var out ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama decode: %w", err)
	}
	return out.Embeddings, nil
}
