// Package config loads simeval settings from a YAML file and the environment.
// Command-line flags are applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klejdi94/simeval/core"
	"github.com/klejdi94/simeval/embedder"
	"github.com/klejdi94/simeval/quantize"
	"github.com/klejdi94/simeval/similarity"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config is the full simeval configuration.
type Config struct {
	Dataset   Dataset                `yaml:"dataset"`
	Backend   embedder.BackendConfig `yaml:"backend"`
	Cache     Cache                  `yaml:"cache"`
	Evaluator Evaluator              `yaml:"evaluator"`
	Store     Store                  `yaml:"store"`
	S3        S3                     `yaml:"s3"`

	// BatchTimeout bounds each backend call. Zero means no limit.
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	// Output is the directory that receives the CSV results file. Empty disables it.
	Output string `yaml:"output"`
	// ResultsURL posts every row to a results server when set.
	ResultsURL string `yaml:"resultsURL"`
	LogLevel   string `yaml:"logLevel"`
}

// Dataset points at a pairs file.
type Dataset struct {
	Path       string  `yaml:"path"`
	Format     string  `yaml:"format"`
	ScoreScale float64 `yaml:"scoreScale"`
}

// Evaluator holds MSESimilarity settings.
type Evaluator struct {
	Name           string `yaml:"name"`
	Precision      string `yaml:"precision"`
	MainSimilarity string `yaml:"mainSimilarity"`
	BatchSize      int    `yaml:"batchSize"`
	WriteCSV       bool   `yaml:"writeCSV"`
	Epoch          int    `yaml:"epoch"`
	Steps          int    `yaml:"steps"`
}

// Store selects where result rows are recorded besides the CSV file.
type Store struct {
	Kind     string `yaml:"kind"`
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	Redis    string `yaml:"redis"`
	RedisKey string `yaml:"redisKey"`
	Max      int    `yaml:"max"`
}

// S3 mirrors the CSV results file into a bucket when Bucket is set.
type S3 struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
}

// Cache enables the Redis embedding cache when Redis is set.
type Cache struct {
	Redis     string        `yaml:"redis"`
	TTL       time.Duration `yaml:"ttl"`
	Namespace string        `yaml:"namespace"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Backend: embedder.BackendConfig{Kind: embedder.KindOllama},
		Evaluator: Evaluator{
			BatchSize: 16,
			WriteCSV:  true,
			Epoch:     -1,
			Steps:     -1,
		},
		Store:    Store{Kind: StoreNone, Table: "simeval_results", Max: 100000},
		Cache:    Cache{TTL: 24 * time.Hour},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", core.ErrConfig, path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from SIMEVAL_DSN, SIMEVAL_REDIS, OLLAMA_HOST,
// OPENAI_API_KEY and COHERE_API_KEY. Unset variables leave fields alone.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SIMEVAL_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := getenv("SIMEVAL_REDIS"); v != "" {
		c.Store.Redis = v
	}
	switch strings.ToLower(c.Backend.Kind) {
	case "", embedder.KindOllama:
		if v := getenv("OLLAMA_HOST"); v != "" {
			c.Backend.BaseURL = v
		}
	case embedder.KindOpenAI:
		if v := getenv("OPENAI_API_KEY"); v != "" {
			c.Backend.APIKey = v
		}
	case embedder.KindCohere:
		if v := getenv("COHERE_API_KEY"); v != "" {
			c.Backend.APIKey = v
		}
	}
}

// Precision parses Evaluator.Precision.
func (c Config) Precision() (quantize.Precision, error) {
	return quantize.ParsePrecision(c.Evaluator.Precision)
}

// MainSimilarity parses Evaluator.MainSimilarity.
func (c Config) MainSimilarity() (similarity.Function, error) {
	return similarity.ParseFunction(c.Evaluator.MainSimilarity)
}

// Validate checks enum fields and the requirements of the selected store.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Precision(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MainSimilarity(); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Kind {
	case "", StoreNone, StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, &core.ValidationError{Field: "store.dsn", Message: "postgres store requires a DSN (or SIMEVAL_DSN)"})
		}
	case StoreRedis:
		if c.Store.Redis == "" {
			errs = append(errs, &core.ValidationError{Field: "store.redis", Message: "redis store requires an address (or SIMEVAL_REDIS)"})
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown store %q", core.ErrConfig, c.Store.Kind))
	}
	if c.Evaluator.BatchSize <= 0 {
		errs = append(errs, &core.ValidationError{Field: "evaluator.batchSize", Value: c.Evaluator.BatchSize, Message: "must be positive"})
	}
	return errors.Join(errs...)
}
