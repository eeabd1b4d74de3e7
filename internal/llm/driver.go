// Package llm defines the provider-agnostic completion interface the
// generation orchestrator talks to, with concrete drivers in subpackages.
package llm

import (
	"context"
	"fmt"
)

// Driver is implemented by each model provider.
type Driver interface {
	// Complete sends one completion request and returns the full response.
	// No streaming; generation parameters are fixed at client construction.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g. "gemini").
	Name() string
}

// GenerationParams are provider sampling knobs, supplied once when a client
// is constructed.
type GenerationParams struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// DefaultGenerationParams favor low-variance structured output.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
		MaxTokens:   8192,
	}
}

// Request is a provider-agnostic completion request.
type Request struct {
	Prompt string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Usage carries token accounting when the provider reports it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderError reports a non-success provider response.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}
