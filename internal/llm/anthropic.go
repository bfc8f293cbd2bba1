package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic implements Client with the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeHaiku4_5
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  m,
	}
}

func (c *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(req.maxTokens()),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion failed: %w", err)
	}
	if message == nil || len(message.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	resp := &Response{
		Text:      text,
		Truncated: string(message.StopReason) == "max_tokens",
	}
	if resp.Text == "" && !resp.Truncated {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
