package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini implements Client with GenerateContent.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Gemini{client: client, model: model}, nil
}

func (c *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.maxTokens()),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(req.Prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini completion failed: %w", err)
	}
	return geminiResponse(result)
}

func geminiResponse(result *genai.GenerateContentResponse) (*Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := &Response{}
	for _, candidate := range result.Candidates {
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			resp.Truncated = true
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				resp.Text += part.Text
			}
		}
		if resp.Text != "" {
			break
		}
	}

	if resp.Text == "" && !resp.Truncated {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
