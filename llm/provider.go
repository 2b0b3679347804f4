// Package llm provides the completion provider interface and implementations.
package llm

import (
	"context"
	"fmt"
)

// Message represents a role-tagged completion message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest represents a completion request.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"` // applied when > 0
}

// ChatResponse represents a completion response.
type ChatResponse struct {
	Content      string `json:"content"`
	StopReason   string `json:"stop_reason"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model"`
}

// Provider is the interface for LLM completion providers.
//
// The completion text must be treated as untrusted: callers that expect
// JSON should go through ExtractObject rather than unmarshaling directly.
type Provider interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ProviderConfig holds configuration for building a provider.
type ProviderConfig struct {
	Provider    string      `json:"provider"` // anthropic, openai, google
	Model       string      `json:"model"`
	APIKey      string      `json:"api_key"`
	MaxTokens   int         `json:"max_tokens"`
	BaseURL     string      `json:"base_url"` // Custom API endpoint
	RetryConfig RetryConfig `json:"retry"`
}

// RetryConfig holds retry settings for LLM calls.
type RetryConfig struct {
	MaxRetries  int   `json:"max_retries"`  // Max retry attempts (default 3)
	MaxBackoff  int64 `json:"max_backoff"`  // Max backoff in seconds (default 30)
	InitBackoff int64 `json:"init_backoff"` // Initial backoff in seconds (default 1)
}

// Validate validates the configuration.
func (c *ProviderConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.MaxTokens == 0 {
		return fmt.Errorf("max_tokens is required")
	}
	return nil
}

// --- Mock Provider for Testing ---

// MockProvider is a mock completion provider for testing.
type MockProvider struct {
	response    string
	stopReason  string
	lastRequest *ChatRequest
	err         error
	callCount   int

	// Responses, when set, are returned in order across calls.
	Responses []string

	// ChatFunc can be overridden for custom behavior.
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		stopReason: "end_turn",
	}
}

// SetResponse sets the response content.
func (p *MockProvider) SetResponse(content string) {
	p.response = content
}

// SetError sets an error to return.
func (p *MockProvider) SetError(err error) {
	p.err = err
}

// LastRequest returns the last request.
func (p *MockProvider) LastRequest() *ChatRequest {
	return p.lastRequest
}

// CallCount returns the number of Chat calls made.
func (p *MockProvider) CallCount() int {
	return p.callCount
}

// Reset resets the call count.
func (p *MockProvider) Reset() {
	p.callCount = 0
}

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.callCount++
	p.lastRequest = &req

	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}

	if p.err != nil {
		return nil, p.err
	}

	content := p.response
	if len(p.Responses) > 0 {
		idx := p.callCount - 1
		if idx >= len(p.Responses) {
			idx = len(p.Responses) - 1
		}
		content = p.Responses[idx]
	}

	return &ChatResponse{
		Content:    content,
		StopReason: p.stopReason,
	}, nil
}
