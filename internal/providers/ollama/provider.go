// internal/providers/ollama/provider.go
// Package ollama provides a ChatProvider backed by a local Ollama-compatible
// HTTP server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/corpusq/internal/logging"
	"github.com/mwiater/corpusq/internal/providers"
)

const backendName = "ollama"

// Provider implements providers.ChatProvider against the /api/generate
// endpoint. The message list is flattened into a single text prompt; Ollama's
// eval counters are normalized into the uniform usage shape.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// Config holds construction parameters for the local-server backend.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Debug   bool
}

// New constructs a Provider and verifies the server is reachable. An
// unreachable server is a construction-time error so that misconfiguration
// surfaces before any retrieval work is done.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("ollama model is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	p := &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
	if err := p.ping(); err != nil {
		return nil, &providers.Error{
			Backend: backendName,
			Op:      "connect",
			Hint:    "start the Ollama server or point ollamaUrl at a running instance",
			Err:     err,
		}
	}
	return p, nil
}

func (p *Provider) ping() error {
	resp, err := p.client.Get(p.baseURL + "/api/tags")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s/api/tags", resp.Status, p.baseURL)
	}
	return nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// flattenMessages folds a chat history into one text prompt: the system
// message first, then each turn labeled by role.
func flattenMessages(messages []providers.ChatMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case providers.RoleAssistant:
			b.WriteString("Assistant: ")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		default:
			b.WriteString("User: ")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}
	}
	b.WriteString("Assistant:")
	return b.String()
}

// ChatCompletion flattens the messages and issues one non-streaming generate
// call. Timeouts surface as a deadline-exceeded error with remediation text.
func (p *Provider) ChatCompletion(ctx context.Context, messages []providers.ChatMessage, opts providers.Options) (providers.Completion, error) {
	reqBody := generateRequest{
		Model:  p.model,
		Prompt: flattenMessages(messages),
		Stream: false,
	}
	options := map[string]any{}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		reqBody.Options = options
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("marshal generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := p.baseURL + "/api/generate"
	if p.debug {
		logging.LogCall("corpusq->llm", backendName, p.model, map[string]any{"url": endpoint, "prompt_bytes": len(payload)})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return providers.Completion{}, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		hint := "check that the Ollama server is reachable"
		if errors.Is(err, context.DeadlineExceeded) {
			hint = "reduce chunk count or use a lighter model"
		}
		return providers.Completion{}, &providers.Error{
			Backend: backendName,
			Op:      "generate",
			Hint:    hint,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return providers.Completion{}, &providers.Error{
			Backend: backendName,
			Op:      "generate",
			Hint:    "verify the model is pulled on the server",
			Err:     fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw))),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("read generate response: %w", err)
	}
	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Completion{}, fmt.Errorf("parse generate response: %w", err)
	}

	usage := providers.Usage{
		PromptTokens:     parsed.PromptEvalCount,
		CompletionTokens: parsed.EvalCount,
		TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
	}
	return providers.Completion{
		Content: strings.TrimSpace(parsed.Response),
		Usage:   usage,
	}, nil
}

// ModelName returns the configured model.
func (p *Provider) ModelName() string { return p.model }

// Close is a no-op; the provider holds no persistent connection.
func (p *Provider) Close() error { return nil }
