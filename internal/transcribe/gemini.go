package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/model"
)

// implements Transcriber using Google Gemini audio understanding
type Gemini struct {
	client *genai.Client
	model  string
}

// JSON object requested from Gemini
type geminiTranscript struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Segments            []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Gemini{client: client, model: modelName}, nil
}

func (t *Gemini) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(buildGeminiPrompt(opts)),
		genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	res, err := parseGeminiTranscript(responseText(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	return finalize(res), nil
}

func buildGeminiPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Respond with a JSON object with the fields 'language' (ISO 639-1 code of the spoken language), ")
	sb.WriteString("'language_probability' (your confidence from 0 to 1) and 'segments', ")
	sb.WriteString("an array of objects with 'start', 'end' and 'text', where 'start' and 'end' are seconds as numbers. ")

	if opts.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio is in %s. ", language.Name(opts.Language)))
	}
	sb.WriteString("Transcribe in the spoken language; do not translate. ")

	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON object, no other text or markdown formatting.")

	return sb.String()
}

func parseGeminiTranscript(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	transcript, err := llm.DecodeFirst(text, func(t geminiTranscript) bool {
		return len(t.Segments) > 0
	})
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, llm.Truncate(text, 200))
	}

	res := &Result{
		Language:            transcript.Language,
		LanguageProbability: transcript.LanguageProbability,
	}
	for _, seg := range transcript.Segments {
		res.Segments = append(res.Segments, model.Segment{
			Start: model.FromSeconds(seg.Start),
			End:   model.FromSeconds(seg.End),
			Text:  seg.Text,
		})
	}
	return res, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var text string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		if text != "" {
			break
		}
	}
	return text
}
