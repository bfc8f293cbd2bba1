// Package vocabulary extracts study vocabulary from a transcript.
package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
)

const (
	DefaultMaxWords = 15
	MaxWordsCeiling = 20
	MinWords        = 8
	// ShrinkStep is how many words a retry asks for less than the attempt before.
	ShrinkStep      = 5
	DefaultAttempts = 3
	// SegmentWindow bounds how much of the transcript is sent.
	SegmentWindow = 50

	corruptMarker = "???"
)

var (
	ErrNoText        = errors.New("no transcript text to extract from")
	ErrNoVocabulary  = errors.New("no valid vocabulary extracted")
	errTruncated     = errors.New("response truncated")
	errNoVocabArray  = errors.New("no vocabulary array in response")
	wrapperKeys      = []string{"vocabularies", "words", "vocabulary", "items", "data"}
	placeholderProns = map[string]bool{"": true, "N/A": true, corruptMarker: true}
)

// Options configures an Extractor.
type Options struct {
	// TargetLanguage is the language translations and glosses are written in.
	TargetLanguage string
	Attempts       int
}

// Extractor asks a text model for vocabulary items.
type Extractor struct {
	client llm.Client
	reader *Reader
	logger *logging.Logger
	opts   Options
}

func New(client llm.Client, logger *logging.Logger, opts Options) *Extractor {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{
		client: client,
		reader: NewReader(),
		logger: logger,
		opts:   opts,
	}
}

// Extract returns up to maxWords validated items taken from the source text
// of the first SegmentWindow segments. A truncated or unparseable response is
// retried with ShrinkStep fewer words, never below MinWords.
func (e *Extractor) Extract(
	ctx context.Context,
	segments []model.Segment,
	sourceLang string,
	maxWords int,
) ([]model.Vocabulary, error) {
	text := joinText(segments, SegmentWindow)
	if text == "" {
		return nil, ErrNoText
	}

	words := clampWords(maxWords)
	sourceLang = language.Normalize(sourceLang)

	var lastErr error
	for attempt := 1; attempt <= e.opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.logger.Debugw("Requesting vocabulary",
			"attempt", attempt,
			"words", words,
			"language", sourceLang,
		)

		raw, err := e.request(ctx, text, sourceLang, words)
		if err == nil {
			items := e.clean(raw, sourceLang)
			if len(items) > 0 {
				return items, nil
			}
			err = ErrNoVocabulary
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warnw("Vocabulary attempt failed",
			"attempt", attempt,
			"words", words,
			"error", err,
		)
		if errors.Is(err, errTruncated) || errors.Is(err, llm.ErrNoJSON) || errors.Is(err, errNoVocabArray) {
			words = max(MinWords, words-ShrinkStep)
		}
	}

	if errors.Is(lastErr, ErrNoVocabulary) {
		return nil, ErrNoVocabulary
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrNoVocabulary, e.opts.Attempts, lastErr)
}

// rawItem accepts whatever the model sent; fields are cleaned afterwards.
type rawItem struct {
	Word               any `json:"word"`
	Translation        any `json:"translation"`
	Pronunciation      any `json:"pronunciation"`
	PartOfSpeech       any `json:"part_of_speech"`
	ExampleSentence    any `json:"example_sentence"`
	ExampleTranslation any `json:"example_translation"`
	DifficultyLevel    any `json:"difficulty_level"`
}

func (e *Extractor) request(ctx context.Context, text, sourceLang string, words int) ([]rawItem, error) {
	resp, err := e.client.Complete(ctx, llm.Request{
		System:      systemPrompt(sourceLang),
		Prompt:      buildPrompt(text, sourceLang, e.opts.TargetLanguage, words),
		Temperature: 0.2,
		MaxTokens:   10000,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		return nil, errTruncated
	}
	return parseItems(resp.Text)
}

func parseItems(text string) ([]rawItem, error) {
	candidates := llm.JSONCandidates(text)
	if len(candidates) == 0 {
		return nil, llm.ErrNoJSON
	}
	for _, raw := range candidates {
		if items, ok := extractItems(raw); ok {
			return items, nil
		}
	}
	return nil, errNoVocabArray
}

func extractItems(raw json.RawMessage) ([]rawItem, bool) {
	var items []rawItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if field, ok := wrapper[key]; ok {
			if err := json.Unmarshal(field, &items); err == nil {
				return items, true
			}
		}
	}
	for _, field := range wrapper {
		if err := json.Unmarshal(field, &items); err == nil {
			return items, true
		}
	}
	return nil, false
}

// clean validates items and fills defaults. Items without a word or a
// translation, or carrying the corruption marker, are dropped.
func (e *Extractor) clean(items []rawItem, lang string) []model.Vocabulary {
	out := make([]model.Vocabulary, 0, len(items))
	for i, it := range items {
		word := str(it.Word)
		translation := str(it.Translation)
		if word == "" || translation == "" {
			e.logger.Debugw("Skipping vocabulary item: missing word or translation", "item", i+1)
			continue
		}
		if strings.Contains(word, corruptMarker) || strings.Contains(translation, corruptMarker) {
			e.logger.Debugw("Skipping vocabulary item: corrupted text", "item", i+1)
			continue
		}

		v := model.Vocabulary{
			Word:               word,
			Translation:        translation,
			Pronunciation:      str(it.Pronunciation),
			PartOfSpeech:       orDefault(str(it.PartOfSpeech), "word"),
			ExampleSentence:    str(it.ExampleSentence),
			ExampleTranslation: str(it.ExampleTranslation),
			Language:           lang,
			DifficultyLevel:    orDefault(str(it.DifficultyLevel), "intermediate"),
		}
		if placeholderProns[v.Pronunciation] {
			v.Pronunciation = e.reader.Pronounce(word, lang)
		}
		out = append(out, v)
	}
	return out
}

func joinText(segments []model.Segment, window int) string {
	parts := make([]string, 0, min(len(segments), window))
	for _, seg := range segments[:min(len(segments), window)] {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func clampWords(n int) int {
	if n <= 0 {
		return DefaultMaxWords
	}
	return min(n, MaxWordsCeiling)
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
