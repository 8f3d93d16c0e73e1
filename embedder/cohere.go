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
	defaultCohereBase      = "https://api.cohere.com/v2"
	defaultCohereModel     = "embed-english-v3.0"
	defaultCohereInputType = "classification"
)

// Cohere is a Backend for the Cohere v2 embed API.
type Cohere struct {
	BaseURL    string
	APIKey     string
	Model      string
	InputType  string
	HTTPClient *http.Client
}

// CohereConfig configures the Cohere backend. APIKey falls back to COHERE_API_KEY.
type CohereConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	InputType  string
	HTTPClient *http.Client
}

// NewCohere creates a Cohere backend.
func NewCohere(cfg CohereConfig) (*Cohere, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("COHERE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultCohereBase
	}
	model := cfg.Model
	if model == "" {
		model = defaultCohereModel
	}
	inputType := cfg.InputType
	if inputType == "" {
		inputType = defaultCohereInputType
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Cohere{
		BaseURL:    strings.TrimSuffix(base, "/"),
		APIKey:     key,
		Model:      model,
		InputType:  inputType,
		HTTPClient: client,
	}, nil
}

type cohereEmbedReq struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type cohereEmbedResp struct {
	Embeddings struct {
		Float [][]float64 `json:"float"`
	} `json:"embeddings"`
}

// EmbedBatch implements Backend.
func (c *Cohere) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	body := cohereEmbedReq{
		Model:          c.Model,
		Texts:          texts,
		InputType:      c.InputType,
		EmbeddingTypes: []string{"float"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("cohere encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cohere api error %d: %s", resp.StatusCode, string(bs))
	}
	var out cohereEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cohere decode: %w", err)
	}
	return out.Embeddings.Float, nil
}
