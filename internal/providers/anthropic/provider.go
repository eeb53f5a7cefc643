// Package anthropic provides a ChatProvider backed by the Anthropic messages
// API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mwiater/corpusq/internal/providers"
)

const backendName = "anthropic"

const defaultMaxTokens = 1024

// Provider implements providers.ChatProvider over the hosted Anthropic API.
// The API does not accept system messages inline, so any system-role message
// is extracted from the list and passed via the separate system parameter.
type Provider struct {
	client anthropic.Client
	model  string
}

// Config holds construction parameters for the Anthropic backend.
type Config struct {
	APIKey string
	Model  string
}

// New constructs a Provider. A missing API key fails immediately rather than
// on first use.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}, nil
}

// ChatCompletion sends the conversation, hoisting system messages into the
// system parameter, and maps input/output token counts into the uniform shape.
func (p *Provider) ChatCompletion(ctx context.Context, messages []providers.ChatMessage, opts providers.Options) (providers.Completion, error) {
	var systemText string
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			if systemText != "" {
				systemText += "\n\n"
			}
			systemText += msg.Content
		case providers.RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  converted,
		MaxTokens: int64(maxTokens),
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: systemText}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return providers.Completion{}, &providers.Error{
			Backend: backendName,
			Op:      "messages",
			Hint:    "check the API key and model name, or reduce chunk count",
			Err:     err,
		}
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	input := int(msg.Usage.InputTokens)
	output := int(msg.Usage.OutputTokens)
	return providers.Completion{
		Content: content.String(),
		Usage: providers.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

// ModelName returns the configured model.
func (p *Provider) ModelName() string { return p.model }

// Close is a no-op for the hosted API client.
func (p *Provider) Close() error { return nil }
