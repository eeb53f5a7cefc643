// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"strings"

	"github.com/mwiater/corpusq/internal/appconfig"
	"github.com/mwiater/corpusq/internal/logging"
	"github.com/mwiater/corpusq/internal/providers"
	"github.com/mwiater/corpusq/internal/providers/anthropic"
	"github.com/mwiater/corpusq/internal/providers/ollama"
	"github.com/mwiater/corpusq/internal/providers/openai"
)

// NewChatProvider selects and constructs the LLM backend for the given
// configuration. Resolution order: explicit provider in the config, then the
// LLM_PROVIDER environment value (populated into the config by the CLI
// layer), then presence of a hosted API key (anthropic before openai), then
// the local Ollama server. Construction failures surface immediately.
func NewChatProvider(cfg *appconfig.Config) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	name := resolveBackend(cfg)
	logging.LogEvent("LLM backend selected: %s", name)

	switch name {
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL: cfg.OllamaBaseURL(),
			Model:   cfg.OllamaModel,
			Timeout: cfg.RequestTimeout(),
			Debug:   cfg.Debug,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey: cfg.OpenAIKey,
			Model:  cfg.OpenAIModel,
		})
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.AnthropicModel,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (expected ollama, openai, or anthropic)", name)
	}
}

func resolveBackend(cfg *appconfig.Config) string {
	if name := strings.ToLower(strings.TrimSpace(cfg.Provider)); name != "" {
		return name
	}
	if name := strings.ToLower(strings.TrimSpace(cfg.ProviderEnv)); name != "" {
		return name
	}
	if strings.TrimSpace(cfg.AnthropicKey) != "" {
		return "anthropic"
	}
	if strings.TrimSpace(cfg.OpenAIKey) != "" {
		return "openai"
	}
	return "ollama"
}
