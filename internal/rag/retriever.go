// Package rag implements the retrieval-and-answering pipeline: embed a
// question, pull the nearest chunks from the vector store, optionally rerank
// them, and generate a grounded answer through an LLM backend.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/corpusq/internal/embedding"
	"github.com/mwiater/corpusq/internal/providers"
	"github.com/mwiater/corpusq/internal/store"
)

// NoContextAnswer is returned when retrieval finds nothing; no LLM call is
// made in that case.
const NoContextAnswer = "No relevant chunks were found in the collection for this question."

// Retriever holds long-lived handles to the embedder, store collection,
// optional reranker, and LLM provider. It is stateless per call and not safe
// for concurrent use (the underlying clients make no thread-safety promise).
type Retriever struct {
	embedder   embedding.Embedder
	store      store.Store
	collection string
	reranker   Reranker
	provider   providers.ChatProvider
}

// NewRetriever binds the pipeline's collaborators. The named collection must
// already exist: populating the store is the indexer's job, so a missing
// collection is a fatal configuration error here, not something to create
// implicitly.
func NewRetriever(ctx context.Context, embedder embedding.Embedder, st store.Store, collection string, reranker Reranker, provider providers.ChatProvider) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("chat provider is nil")
	}
	exists, err := st.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		return nil, fmt.Errorf("collection %q does not exist; run the index command first", collection)
	}
	return &Retriever{
		embedder:   embedder,
		store:      st,
		collection: collection,
		reranker:   reranker,
		provider:   provider,
	}, nil
}

// Model reports the LLM backend's model identifier.
func (r *Retriever) Model() string {
	return r.provider.ModelName()
}

// SearchChunks embeds the query and returns the nResults nearest chunks,
// optionally constrained by an exact-match metadata filter. With reranking
// enabled and a reranker configured, the result order is overridden by
// cross-encoder scores (descending); otherwise the store's ascending-distance
// order is preserved.
func (r *Retriever) SearchChunks(ctx context.Context, query string, nResults int, filter map[string]string, useReranking bool) ([]RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Query(ctx, r.collection, vector, nResults, filter)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", r.collection, err)
	}

	chunks := make([]RetrievedChunk, len(results))
	for i, res := range results {
		chunks[i] = RetrievedChunk{
			ID:       res.ID,
			Content:  res.Document,
			Metadata: res.Metadata,
			Distance: res.Distance,
		}
	}

	if useReranking && r.reranker != nil {
		chunks, err = rerank(ctx, r.reranker, query, chunks)
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// GenerateAnswer assembles the grounded prompt from the given chunks,
// invokes the LLM backend, and returns the structured result. Provider
// errors propagate uncaught; retries are the caller's concern.
func (r *Retriever) GenerateAnswer(ctx context.Context, question string, chunks []RetrievedChunk, systemPrompt string, opts providers.Options) (AnswerResult, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	messages := []providers.ChatMessage{
		{Role: providers.RoleSystem, Content: systemPrompt},
		{Role: providers.RoleUser, Content: BuildUserPrompt(question, BuildContext(chunks))},
	}

	completion, err := r.provider.ChatCompletion(ctx, messages, opts)
	if err != nil {
		return AnswerResult{}, err
	}

	sources := make([]string, len(chunks))
	for i, chunk := range chunks {
		sources[i] = chunk.ID
	}

	return AnswerResult{
		Question:         question,
		Answer:           completion.Content,
		Sources:          sources,
		ChunksUsed:       chunks,
		Model:            r.provider.ModelName(),
		TokensUsed:       completion.Usage.TotalTokens,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}

// AskOptions carries Ask's tunables. Zero values fall back to 5 chunks,
// temperature 0.3, and reranking enabled.
type AskOptions struct {
	NChunks      int
	Filter       map[string]string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	NoReranking  bool
}

// Ask retrieves chunks for the question and generates a grounded answer.
// When retrieval returns nothing, it short-circuits to a fixed no-context
// answer with zero token usage and never calls the LLM.
func (r *Retriever) Ask(ctx context.Context, question string, opts AskOptions) (AnswerResult, error) {
	nChunks := opts.NChunks
	if nChunks <= 0 {
		nChunks = 5
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	chunks, err := r.SearchChunks(ctx, question, nChunks, opts.Filter, !opts.NoReranking)
	if err != nil {
		return AnswerResult{}, err
	}

	if len(chunks) == 0 {
		return AnswerResult{
			Question: question,
			Answer:   NoContextAnswer,
			Sources:  []string{},
			Model:    r.provider.ModelName(),
		}, nil
	}

	return r.GenerateAnswer(ctx, question, chunks, opts.SystemPrompt, providers.Options{
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
	})
}
