package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
		applyDefaults(cfg)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Store Backend:    %s\n", cfg.StoreBackend)
	fmt.Fprintf(out, "  Store Path:       %s\n", cfg.StoreDir())
	if cfg.StoreBackend == "qdrant" {
		fmt.Fprintf(out, "  Qdrant Address:   %s\n", cfg.QdrantAddr)
	}
	fmt.Fprintf(out, "  Collection:       %s\n", cfg.CollectionName())
	fmt.Fprintf(out, "  Embedding Type:   %s\n", cfg.EmbeddingType)
	fmt.Fprintf(out, "  Embedding Model:  %s\n", cfg.EmbeddingModel)
	fmt.Fprintf(out, "  Ollama URL:       %s\n", cfg.OllamaBaseURL())
	fmt.Fprintf(out, "  Ollama Model:     %s\n", cfg.OllamaModel)
	if cfg.Provider != "" {
		fmt.Fprintf(out, "  LLM Provider:     %s\n", cfg.Provider)
	} else {
		fmt.Fprintln(out, "  LLM Provider:     (auto-detect)")
	}
	fmt.Fprintf(out, "  Reranking:        %v\n", cfg.UseReranking)
	if cfg.RerankerURL != "" {
		fmt.Fprintf(out, "  Reranker URL:     %s\n", cfg.RerankerURL)
		fmt.Fprintf(out, "  Reranker Model:   %s\n", cfg.RerankerModel)
	}
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Batch Size:       %d\n", cfg.IndexBatchSize())
	fmt.Fprintf(out, "  Chunk Count:      %d\n", cfg.RetrievalChunkCount())
	fmt.Fprintf(out, "  Temperature:      %.2f\n", cfg.Temperature)
	fmt.Fprintf(out, "  Max Tokens:       %d\n", cfg.MaxTokens)
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
}
