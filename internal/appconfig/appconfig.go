// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for LLM and embedding HTTP requests.
	defaultRequestTimeout = 300 * time.Second
	// defaultCollection is the collection name used when the config omits one.
	defaultCollection = "corpus"
	// defaultStorePath is the directory holding persisted collections.
	defaultStorePath = "corpusqData/store"
	// defaultBatchSize is the number of chunks embedded and upserted per batch.
	defaultBatchSize = 32
	// defaultChunkCount is the number of chunks retrieved per question.
	defaultChunkCount = 5
)

// defaultRefusalPhrases are matched against generated answers to detect a
// model declining to answer. Overridable via the refusalPhrases config key.
var defaultRefusalPhrases = []string{
	"no relevant information",
	"not enough information",
	"cannot answer",
	"can't answer",
	"i don't know",
	"i do not know",
	"no information found",
	"context does not contain",
	"context doesn't contain",
	"insufficient context",
}

// Config represents the top-level application configuration.
type Config struct {
	StoreBackend   string   `json:"storeBackend,omitempty"` // "local" (default) or "qdrant"
	StorePath      string   `json:"storePath,omitempty"`    // local store directory
	QdrantAddr     string   `json:"qdrantAddr,omitempty"`   // host:port for the qdrant gRPC endpoint
	Collection     string   `json:"collection,omitempty"`
	EmbeddingType  string   `json:"embeddingType,omitempty"` // "ollama" (default) or "openai"
	EmbeddingModel string   `json:"embeddingModel,omitempty"`
	OllamaURL      string   `json:"ollamaUrl,omitempty"`
	OllamaModel    string   `json:"ollamaModel,omitempty"`
	Provider       string   `json:"provider,omitempty"` // explicit LLM backend, empty = auto-detect
	OpenAIModel    string   `json:"openaiModel,omitempty"`
	AnthropicModel string   `json:"anthropicModel,omitempty"`
	OpenAIKey      string   `json:"-"` // populated from the environment by the CLI layer only
	AnthropicKey   string   `json:"-"`
	ProviderEnv    string   `json:"-"` // LLM_PROVIDER value, populated by the CLI layer
	RerankerURL    string   `json:"rerankerUrl,omitempty"`
	RerankerModel  string   `json:"rerankerModel,omitempty"`
	UseReranking   bool     `json:"useReranking"`
	RefusalPhrases []string `json:"refusalPhrases,omitempty"`
	TimeoutSeconds int      `json:"timeout,omitempty"`
	BatchSize      int      `json:"batchSize,omitempty"`
	ChunkCount     int      `json:"chunkCount,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	MaxTokens      int      `json:"maxTokens,omitempty"`
	Debug          bool     `json:"debug"`
	LogFile        string   `json:"logFile,omitempty"`
	ConfigPath     string   `json:"-"`
}

// RequestTimeout returns the timeout duration for blocking provider calls,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CollectionName returns the configured collection, applying the default if unset.
func (c Config) CollectionName() string {
	if name := strings.TrimSpace(c.Collection); name != "" {
		return name
	}
	return defaultCollection
}

// StoreDir returns the local store directory, applying the default if unset.
func (c Config) StoreDir() string {
	if path := strings.TrimSpace(c.StorePath); path != "" {
		return path
	}
	return defaultStorePath
}

// IndexBatchSize returns the indexing batch size, applying the default if unset.
func (c Config) IndexBatchSize() int {
	if c.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.BatchSize
}

// RetrievalChunkCount returns how many chunks to retrieve per question.
func (c Config) RetrievalChunkCount() int {
	if c.ChunkCount <= 0 {
		return defaultChunkCount
	}
	return c.ChunkCount
}

// OllamaBaseURL returns the local model server URL, applying the default if unset.
func (c Config) OllamaBaseURL() string {
	if u := strings.TrimSpace(c.OllamaURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:11434"
}

// RefusalList returns the refusal phrases used by the evaluator, applying the
// built-in list when the config omits one.
func (c Config) RefusalList() []string {
	if len(c.RefusalPhrases) > 0 {
		return c.RefusalPhrases
	}
	return defaultRefusalPhrases
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "corpusq.log"
}

// Load reads and validates the configuration file at path. A missing file is
// not an error: every field has a usable default so the CLI can run from
// flags and environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{ConfigPath: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func validate(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", "local", "qdrant":
	default:
		return fmt.Errorf("unsupported storeBackend %q (expected local or qdrant)", cfg.StoreBackend)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.EmbeddingType)) {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("unsupported embeddingType %q (expected ollama or openai)", cfg.EmbeddingType)
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be zero or greater")
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("batchSize must be zero or greater")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.StoreBackend) == "" {
		cfg.StoreBackend = "local"
	}
	if strings.TrimSpace(cfg.EmbeddingType) == "" {
		cfg.EmbeddingType = "ollama"
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		cfg.EmbeddingModel = "nomic-embed-text"
	}
	if strings.TrimSpace(cfg.OllamaModel) == "" {
		cfg.OllamaModel = "llama3"
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
}
