// Package quiz generates multiple choice comprehension questions.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
)

const (
	DefaultQuestions = 10
	// SegmentWindow bounds how many translated segments are sent.
	SegmentWindow = 50
)

var (
	ErrNoSegments  = errors.New("no segments to generate a quiz from")
	ErrNoQuestions = errors.New("no valid quiz questions generated")
)

// Options configures a Generator.
type Options struct {
	// TargetLanguage is the learner's language, used for explanations.
	TargetLanguage string
	Temperature    float64
	MaxTokens      int
}

// Generator asks a text model for questions and parses its blocks.
type Generator struct {
	client llm.Client
	logger *logging.Logger
	opts   Options
}

func New(client llm.Client, logger *logging.Logger, opts Options) *Generator {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 3000
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Generator{client: client, logger: logger, opts: opts}
}

// Generate returns up to count questions about segments. Only segments that
// carry a translation are used; malformed blocks in the response are dropped.
func (g *Generator) Generate(ctx context.Context, segments []model.Segment, count int) ([]Question, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	if count <= 0 {
		count = DefaultQuestions
	}

	content := buildContext(segments, SegmentWindow)
	if content == "" {
		return nil, ErrNoSegments
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(content, count, g.opts.TargetLanguage),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions, skipped := ParseBlocks(resp.Text)
	if skipped > 0 {
		g.logger.Warnw("Discarded malformed quiz blocks",
			"skipped", skipped,
			"valid", len(questions),
			"truncated", resp.Truncated,
		)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuestions, llm.Truncate(resp.Text, 200))
	}
	return questions, nil
}

// buildContext renders "text (translation)" lines for the first window
// translated segments. Without any translation the source text is used.
func buildContext(segments []model.Segment, window int) string {
	var lines []string
	for _, seg := range segments {
		if len(lines) == window {
			break
		}
		text := strings.TrimSpace(seg.Text)
		translation := strings.TrimSpace(seg.Translation)
		if text == "" || translation == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", text, translation))
	}
	return strings.Join(lines, "\n")
}

const systemPrompt = "You are an expert at writing multiple choice questions for language learners. " +
	"Write clear, high quality questions at an appropriate difficulty."

func buildPrompt(content string, count int, targetLang string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"Based on the following video content, write %d multiple choice questions that test the learner's understanding.\n\n",
		count,
	))
	sb.WriteString("Video content:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString(fmt.Sprintf("1. Write exactly %d questions.\n", count))
	sb.WriteString("2. Every question has 4 different answers (A, B, C, D) and exactly one is correct.\n")
	sb.WriteString("3. Questions are about vocabulary, grammar or content from the video.\n")
	sb.WriteString("4. Difficulty: 40% easy, 40% medium, 20% hard.\n")
	if name := language.Name(targetLang); name != "" {
		sb.WriteString(fmt.Sprintf("5. Include a short explanation of the correct answer, written in %s.\n\n", name))
	} else {
		sb.WriteString("5. Include a short explanation of the correct answer.\n\n")
	}

	sb.WriteString("Use exactly this format for every question:\n")
	sb.WriteString("---\n")
	sb.WriteString("QUESTION: [question]\n")
	sb.WriteString("A: [answer A]\n")
	sb.WriteString("B: [answer B]\n")
	sb.WriteString("C: [answer C]\n")
	sb.WriteString("D: [answer D]\n")
	sb.WriteString("CORRECT: [A/B/C/D]\n")
	sb.WriteString("EXPLANATION: [short explanation]\n")
	sb.WriteString("DIFFICULTY: [easy/medium/hard]\n")
	sb.WriteString("---\n\n")
	sb.WriteString("Return only the questions in this format, with no other text.")
	return sb.String()
}
