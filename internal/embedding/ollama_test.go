// internal/embedding/ollama_test.go
package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "nomic-embed-text" {
			http.Error(w, "unexpected model", http.StatusBadRequest)
			return
		}
		vector := []float64{0.1, 0.2, 0.3}
		if req.Prompt == "" {
			vector = nil
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": vector})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaEmbed(t *testing.T) {
	server := newEmbeddingServer(t)
	embedder, err := NewOllama(server.URL, "nomic-embed-text", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	vector, err := embedder.Embed(context.Background(), "some chunk text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vector))
	}
	if vector[1] != 0.2 {
		t.Fatalf("expected converted float32 value 0.2, got %f", vector[1])
	}
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	server := newEmbeddingServer(t)
	embedder, err := NewOllama(server.URL, "nomic-embed-text", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	if _, err := embedder.Embed(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty embedding vector")
	}
}

func TestOllamaEmbedBatchPreservesOrder(t *testing.T) {
	server := newEmbeddingServer(t)
	embedder, err := NewOllama(server.URL, "nomic-embed-text", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
}

func TestNewOllamaRequiresModel(t *testing.T) {
	if _, err := NewOllama("http://localhost:11434", "  ", time.Second); err == nil {
		t.Fatal("expected error for empty model name")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "text-embedding-3-small"); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
