package embedder

import (
	"fmt"
	"strings"

	"github.com/klejdi94/simeval/core"
)

// Backend kinds accepted by NewBackend.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
	KindCohere = "cohere"
)

// BackendConfig selects and configures a remote embedding backend.
type BackendConfig struct {
	Kind       string `yaml:"kind" json:"kind"`
	Model      string `yaml:"model" json:"model,omitempty"`
	BaseURL    string `yaml:"baseURL" json:"baseURL,omitempty"`
	APIKey     string `yaml:"apiKey" json:"-"`
	Dimensions int    `yaml:"dimensions" json:"dimensions,omitempty"`
}

// NewBackend builds the backend named by cfg.Kind. An empty kind means Ollama.
func NewBackend(cfg BackendConfig) (Backend, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindOllama:
		return NewOllama(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case KindOpenAI:
		return NewOpenAI(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, Dimensions: cfg.Dimensions})
	case KindCohere:
		return NewCohere(CohereConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("%w: unknown embedding backend %q", core.ErrConfig, cfg.Kind)
	}
}
