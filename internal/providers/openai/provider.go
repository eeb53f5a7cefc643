// Package openai provides a ChatProvider backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/corpusq/internal/providers"
)

const backendName = "openai"

// Provider implements providers.ChatProvider over the hosted OpenAI API.
// The message list passes through natively; system messages stay inline.
type Provider struct {
	client *openai.Client
	model  string
}

// Config holds construction parameters for the OpenAI backend.
type Config struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible gateways
	Model   string
}

// New constructs a Provider. A missing API key fails immediately rather than
// on first use.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4oMini
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// ChatCompletion sends the message list natively and maps the provider's
// usage fields into the uniform shape.
func (p *Provider) ChatCompletion(ctx context.Context, messages []providers.ChatMessage, opts providers.Options) (providers.Completion, error) {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    converted,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return providers.Completion{}, &providers.Error{
			Backend: backendName,
			Op:      "chat completion",
			Hint:    "check the API key and model name, or reduce chunk count",
			Err:     err,
		}
	}
	if len(resp.Choices) == 0 {
		return providers.Completion{}, &providers.Error{
			Backend: backendName,
			Op:      "chat completion",
			Err:     fmt.Errorf("response contained no choices"),
		}
	}

	return providers.Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ModelName returns the configured model.
func (p *Provider) ModelName() string { return p.model }

// Close is a no-op for the hosted API client.
func (p *Provider) Close() error { return nil }
