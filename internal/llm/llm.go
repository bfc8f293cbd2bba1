package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// text generation provider
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const defaultMaxTokens = 4096

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is one prompt sent to a text model.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON-only response when it supports one.
	JSON bool
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// Response is the generated text. Truncated is set when the provider stopped
// at the token limit.
type Response struct {
	Text      string
	Truncated bool
}

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// New creates a Client for provider.
func New(ctx context.Context, provider Provider, apiKey, model string) (Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required for %s", provider)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAI(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropic(apiKey, model), nil
	case ProviderGemini:
		return NewGemini(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", provider)
	}
}
