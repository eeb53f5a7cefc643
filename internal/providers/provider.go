// internal/providers/provider.go

// Package providers defines the interface for invoking heterogeneous LLM
// backends. It provides a single contract for turning a message list into
// generated text plus token usage, regardless of whether the backend is a
// local model server or a hosted API.
package providers

import (
	"context"
	"fmt"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Usage is the uniform token accounting shape. Backends whose native
// counters are coarser or absent normalize into it as best they can.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of a chat completion call.
type Completion struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Options carries the per-call generation parameters.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// ChatProvider is the interface all LLM backends implement.
type ChatProvider interface {
	// ChatCompletion sends the message list to the backend and returns the
	// generated text with normalized token usage. Errors are not retried.
	ChatCompletion(ctx context.Context, messages []ChatMessage, opts Options) (Completion, error)
	// ModelName returns the model identifier the backend generates with.
	ModelName() string
	// Close cleans up any resources used by the provider.
	Close() error
}

// Error wraps a backend failure with the backend name and a remediation
// hint surfaced to the user alongside the underlying cause.
type Error struct {
	Backend string
	Op      string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s: %v (%s)", e.Backend, e.Op, e.Err, e.Hint)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
