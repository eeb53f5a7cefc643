// internal/appconfig/appconfig_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoad verifies that a valid configuration file loads with defaults
// applied, that invalid JSON and invalid enum values are rejected, and that a
// missing file falls back to a fully-defaulted configuration.
func TestLoad(t *testing.T) {
	validConfig := `{
        "collection": "handbook",
        "storeBackend": "local",
        "embeddingModel": "nomic-embed-text",
        "timeout": 120
    }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(validConfig)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.CollectionName() != "handbook" {
		t.Fatalf("expected collection handbook, got %s", cfg.CollectionName())
	}
	if cfg.RequestTimeout() != 120*time.Second {
		t.Fatalf("expected request timeout of 120s, got %v", cfg.RequestTimeout())
	}
	if cfg.IndexBatchSize() != 32 {
		t.Fatalf("expected default batch size of 32, got %d", cfg.IndexBatchSize())
	}
	if cfg.RetrievalChunkCount() != 5 {
		t.Fatalf("expected default chunk count of 5, got %d", cfg.RetrievalChunkCount())
	}

	invalidJSON := `{ "collection": [`
	tmpfile2, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile2.Name())
	if _, err := tmpfile2.Write([]byte(invalidJSON)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile2.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile2.Name()); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	missing := filepath.Join(t.TempDir(), "nope.json")
	cfg, err = Load(missing)
	if err != nil {
		t.Fatalf("Load() with missing config should use defaults, got error: %v", err)
	}
	if cfg.StoreBackend != "local" {
		t.Fatalf("expected default store backend local, got %s", cfg.StoreBackend)
	}
	if cfg.RequestTimeout() != 300*time.Second {
		t.Fatalf("expected default request timeout of 300s, got %v", cfg.RequestTimeout())
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(`{"storeBackend": "pinecone"}`)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Load(tmpfile.Name())
	if err == nil || !strings.Contains(err.Error(), "storeBackend") {
		t.Fatalf("expected storeBackend error, got %v", err)
	}
}

func TestRefusalListDefaults(t *testing.T) {
	cfg := Config{}
	if len(cfg.RefusalList()) == 0 {
		t.Fatal("expected built-in refusal phrases")
	}

	cfg.RefusalPhrases = []string{"nope"}
	list := cfg.RefusalList()
	if len(list) != 1 || list[0] != "nope" {
		t.Fatalf("expected configured refusal phrases to win, got %v", list)
	}
}
