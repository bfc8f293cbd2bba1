package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI implements Client with Chat Completions.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       c.model,
		Temperature: openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(int64(req.maxTokens())),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := completion.Choices[0]
	resp := &Response{
		Text:      choice.Message.Content,
		Truncated: choice.FinishReason == "length",
	}
	if resp.Text == "" && !resp.Truncated {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
