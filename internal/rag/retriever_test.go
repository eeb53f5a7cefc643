package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/mwiater/corpusq/internal/providers"
	"github.com/mwiater/corpusq/internal/store"
)

// stubEmbedder returns a fixed vector for any text so retrieval order is
// controlled purely by what was upserted.
type stubEmbedder struct {
	vector []float32
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vector, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

// spyProvider counts ChatCompletion calls and returns a canned completion.
type spyProvider struct {
	calls      int
	completion providers.Completion
	lastPrompt string
}

func (s *spyProvider) ChatCompletion(_ context.Context, messages []providers.ChatMessage, _ providers.Options) (providers.Completion, error) {
	s.calls++
	for _, msg := range messages {
		if msg.Role == providers.RoleUser {
			s.lastPrompt = msg.Content
		}
	}
	return s.completion, nil
}

func (s *spyProvider) ModelName() string { return "spy-model" }
func (s *spyProvider) Close() error      { return nil }

func seedStore(t *testing.T, records ...store.Record) *store.Local {
	t.Helper()
	st, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := st.Upsert(context.Background(), "docs", records); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	return st
}

func TestNewRetrieverRequiresExistingCollection(t *testing.T) {
	st, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	_, err = NewRetriever(context.Background(), &stubEmbedder{vector: []float32{1}}, st, "missing", nil, &spyProvider{})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing collection error, got %v", err)
	}
}

func TestAskEndToEnd(t *testing.T) {
	st := seedStore(t, store.Record{
		ID:        "c1",
		Document:  "Paris is the capital of France.",
		Embedding: []float32{1, 0},
	})
	provider := &spyProvider{completion: providers.Completion{
		Content: "The capital of France is Paris. [c1]",
		Usage:   providers.Usage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42},
	}}

	r, err := NewRetriever(context.Background(), &stubEmbedder{vector: []float32{1, 0}}, st, "docs", nil, provider)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	result, err := r.Ask(context.Background(), "What is the capital of France?", AskOptions{})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if result.Answer != "The capital of France is Paris. [c1]" {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "c1" {
		t.Fatalf("expected sources [c1], got %v", result.Sources)
	}
	if result.TokensUsed != 42 {
		t.Fatalf("expected 42 tokens, got %d", result.TokensUsed)
	}
	if result.Model != "spy-model" {
		t.Fatalf("expected provider model name, got %s", result.Model)
	}
	if !strings.Contains(provider.lastPrompt, "(id: c1)") {
		t.Fatalf("expected chunk id in prompt, got %q", provider.lastPrompt)
	}
	if !strings.Contains(provider.lastPrompt, "QUESTION: What is the capital of France?") {
		t.Fatalf("expected question in prompt, got %q", provider.lastPrompt)
	}
}

func TestAskNoChunksShortCircuits(t *testing.T) {
	st := seedStore(t, store.Record{
		ID:        "c1",
		Document:  "Paris is the capital of France.",
		Metadata:  map[string]any{"source": "geo.md"},
		Embedding: []float32{1, 0},
	})
	provider := &spyProvider{completion: providers.Completion{Content: "should never be used"}}

	r, err := NewRetriever(context.Background(), &stubEmbedder{vector: []float32{1, 0}}, st, "docs", nil, provider)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	result, err := r.Ask(context.Background(), "Anything?", AskOptions{
		Filter: map[string]string{"source": "no-such-doc.md"},
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if provider.calls != 0 {
		t.Fatalf("expected no LLM call, got %d", provider.calls)
	}
	if result.TokensUsed != 0 {
		t.Fatalf("expected zero token usage, got %d", result.TokensUsed)
	}
	if result.Answer != NoContextAnswer {
		t.Fatalf("expected fixed no-context answer, got %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected empty sources, got %v", result.Sources)
	}
}

func TestSearchChunksPreservesStoreOrder(t *testing.T) {
	st := seedStore(t,
		store.Record{ID: "near", Document: "near", Embedding: []float32{1, 0}},
		store.Record{ID: "far", Document: "far", Embedding: []float32{0, 1}},
		store.Record{ID: "mid", Document: "mid", Embedding: []float32{1, 1}},
	)

	r, err := NewRetriever(context.Background(), &stubEmbedder{vector: []float32{1, 0}}, st, "docs", nil, &spyProvider{})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	chunks, err := r.SearchChunks(context.Background(), "q", 3, nil, false)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "near" || chunks[2].ID != "far" {
		t.Fatalf("expected ascending distance order, got %v, %v, %v", chunks[0].ID, chunks[1].ID, chunks[2].ID)
	}
}

// reverseReranker scores passages so the store order is exactly inverted.
type reverseReranker struct{}

func (reverseReranker) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	scores := make([]float64, len(passages))
	for i := range passages {
		scores[i] = float64(i)
	}
	return scores, nil
}

func TestSearchChunksRerankOverridesOrder(t *testing.T) {
	st := seedStore(t,
		store.Record{ID: "near", Document: "near", Embedding: []float32{1, 0}},
		store.Record{ID: "far", Document: "far", Embedding: []float32{0, 1}},
	)

	r, err := NewRetriever(context.Background(), &stubEmbedder{vector: []float32{1, 0}}, st, "docs", reverseReranker{}, &spyProvider{})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	chunks, err := r.SearchChunks(context.Background(), "q", 2, nil, true)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if chunks[0].ID != "far" {
		t.Fatalf("expected reranker to override order, got %s first", chunks[0].ID)
	}

	// Reranking disabled: store order wins even with a reranker configured.
	chunks, err = r.SearchChunks(context.Background(), "q", 2, nil, false)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if chunks[0].ID != "near" {
		t.Fatalf("expected store order without reranking, got %s first", chunks[0].ID)
	}
}
