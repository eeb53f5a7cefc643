package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Reranker scores (query, passage) pairs with a cross-encoder. Scores are
// implementation-defined logits: only their relative order matters.
type Reranker interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// HTTPReranker calls a cross-encoder scoring endpoint. The endpoint takes
// {model, query, documents} and returns {scores: [...]} in document order.
type HTTPReranker struct {
	url    string
	model  string
	client *http.Client
}

// NewHTTPReranker builds a reranker client for the given endpoint.
func NewHTTPReranker(url, model string, timeout time.Duration) (*HTTPReranker, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("reranker URL is empty")
	}
	return &HTTPReranker{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Score posts the pairs to the scoring endpoint.
func (r *HTTPReranker) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	payload, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse rerank response: %w", err)
	}
	if len(parsed.Scores) != len(passages) {
		return nil, fmt.Errorf("rerank returned %d scores for %d passages", len(parsed.Scores), len(passages))
	}
	return parsed.Scores, nil
}

// rerank re-sorts chunks descending by cross-encoder score, overriding the
// vector store's distance ordering.
func rerank(ctx context.Context, reranker Reranker, query string, chunks []RetrievedChunk) ([]RetrievedChunk, error) {
	if len(chunks) < 2 {
		return chunks, nil
	}
	passages := make([]string, len(chunks))
	for i, chunk := range chunks {
		passages[i] = chunk.Content
	}
	scores, err := reranker.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("rerank chunks: %w", err)
	}

	type scored struct {
		chunk RetrievedChunk
		score float64
	}
	items := make([]scored, len(chunks))
	for i, chunk := range chunks {
		items[i] = scored{chunk: chunk, score: scores[i]}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]RetrievedChunk, len(items))
	for i, item := range items {
		out[i] = item.chunk
	}
	return out, nil
}
