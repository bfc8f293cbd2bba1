package transcribe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
)

// transcription result
type Result struct {
	Text                string
	Segments            []model.Segment
	Language            string
	LanguageProbability float64 // 0 when the engine does not report one
	Duration            time.Duration
}

// per-call transcription options
type Options struct {
	// Language is a source language hint; empty means auto-detect.
	Language string
	Prompt   string
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
}

// AudioPreparer shrinks audio that exceeds a provider's upload limit.
type AudioPreparer interface {
	Compress(ctx context.Context, inputPath, outputPath string) error
	Split(ctx context.Context, audioPath string, chunkDuration time.Duration, outputDir string) ([]media.Chunk, error)
}

// transcription service provider
type Provider string

const (
	ProviderWhisper Provider = "whisper"
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider      Provider
	APIKey        string
	Model         string
	WhisperBinary string
	TempDir       string
	Preparer      AudioPreparer
}

// creates transcriber based on provider
func Factory(ctx context.Context, cfg Config) (Transcriber, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
		t := NewOpenAI(cfg.APIKey, cfg.Model)
		t.preparer = cfg.Preparer
		t.tempDir = cfg.TempDir
		return t, nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderWhisper:
		return NewWhisperCLI(cfg.WhisperBinary, cfg.Model, cfg.TempDir)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// minSegmentDuration is the length given to segments reported with End <= Start.
const minSegmentDuration = time.Second

// finalize orders segments by start time, drops blank ones, renumbers them
// and fills Text and the normalised language code.
func finalize(res *Result) *Result {
	segments := make([]model.Segment, 0, len(res.Segments))
	for _, seg := range res.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		if seg.End <= seg.Start {
			seg.End = seg.Start + minSegmentDuration
		}
		segments = append(segments, seg)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	for i := range segments {
		segments[i].ID = i
	}
	res.Segments = segments

	if strings.TrimSpace(res.Text) == "" {
		texts := make([]string, len(segments))
		for i, seg := range segments {
			texts[i] = seg.Text
		}
		res.Text = strings.Join(texts, " ")
	}
	res.Text = strings.TrimSpace(res.Text)
	res.Language = language.Normalize(res.Language)

	if res.Duration == 0 && len(segments) > 0 {
		res.Duration = segments[len(segments)-1].End
	}
	return res
}

// attachWords assigns word timings to the segment whose span contains the
// word's start.
func attachWords(segments []model.Segment, words []model.Word) {
	j := 0
	for _, w := range words {
		for j < len(segments)-1 && w.Start >= segments[j].End {
			j++
		}
		if j < len(segments) {
			segments[j].Words = append(segments[j].Words, w)
		}
	}
}

// offsetSegments shifts chunk-relative timings to absolute ones.
func offsetSegments(segments []model.Segment, offset time.Duration) []model.Segment {
	out := make([]model.Segment, len(segments))
	for i, seg := range segments {
		seg.Start += offset
		seg.End += offset
		words := make([]model.Word, len(seg.Words))
		for k, w := range seg.Words {
			w.Start += offset
			w.End += offset
			words[k] = w
		}
		if len(words) == 0 {
			words = nil
		}
		seg.Words = words
		out[i] = seg
	}
	return out
}
