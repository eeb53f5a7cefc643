package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Ollama embeds text through a local Ollama server's embeddings endpoint.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama builds an embedder against the Ollama server at baseURL.
func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Ollama{
		client: api.NewClient(parsed, httpClient),
		model:  model,
	}, nil
}

// Embed requests an embedding vector for a single text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embedding response returned empty vector")
	}
	vector := make([]float32, len(resp.Embedding))
	for i, val := range resp.Embedding {
		vector[i] = float32(val)
	}
	return vector, nil
}

// EmbedBatch embeds each text with a sequential request per item; the Ollama
// embeddings endpoint takes one prompt at a time.
func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := o.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch item %d: %w", i, err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// ModelName returns the configured embedding model.
func (o *Ollama) ModelName() string { return o.model }
