// internal/cli/wiring.go
package corpusq

import (
	"context"
	"fmt"

	"github.com/mwiater/corpusq/internal/appconfig"
	"github.com/mwiater/corpusq/internal/embedding"
	"github.com/mwiater/corpusq/internal/providerfactory"
	"github.com/mwiater/corpusq/internal/rag"
	"github.com/mwiater/corpusq/internal/store"
)

// newEmbedder builds the configured embedding backend.
func newEmbedder(cfg *appconfig.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingType {
	case "", "ollama":
		return embedding.NewOllama(cfg.OllamaBaseURL(), cfg.EmbeddingModel, cfg.RequestTimeout())
	case "openai":
		return embedding.NewOpenAI(cfg.OpenAIKey, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported embedding type %q", cfg.EmbeddingType)
	}
}

// newStore builds the configured vector store backend.
func newStore(cfg *appconfig.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "", "local":
		return store.NewLocal(cfg.StoreDir())
	case "qdrant":
		return store.NewQdrant(cfg.QdrantAddr)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// newReranker builds the optional reranking stage; nil when disabled.
func newReranker(cfg *appconfig.Config) (rag.Reranker, error) {
	if !cfg.UseReranking || cfg.RerankerURL == "" {
		return nil, nil
	}
	return rag.NewHTTPReranker(cfg.RerankerURL, cfg.RerankerModel, cfg.RequestTimeout())
}

// newRetriever wires embedder, store, reranker, and LLM provider into a
// ready retriever. Fails fast when the collection has not been indexed. The
// returned cleanup closes the store and provider handles.
func newRetriever(ctx context.Context, cfg *appconfig.Config) (*rag.Retriever, func(), error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	reranker, err := newReranker(cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	provider, err := providerfactory.NewChatProvider(cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	retriever, err := rag.NewRetriever(ctx, embedder, st, cfg.CollectionName(), reranker, provider)
	if err != nil {
		provider.Close()
		st.Close()
		return nil, nil, err
	}
	cleanup := func() {
		provider.Close()
		st.Close()
	}
	return retriever, cleanup, nil
}
