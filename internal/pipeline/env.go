// Package pipeline turns one uploaded video into subtitles, vocabulary and a
// quiz, and schedules those runs on a bounded worker pool.
package pipeline

import (
	"context"
	"time"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/quiz"
	"github.com/mgpai22/lingo/internal/store"
	"github.com/mgpai22/lingo/internal/subtitle"
	"github.com/mgpai22/lingo/internal/transcribe"
	"github.com/mgpai22/lingo/internal/vocabulary"
)

// AudioExtractor writes the audio track of a video to outputPath.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string) (string, error)
}

// Translator attaches translations to segments.
type Translator interface {
	Translate(ctx context.Context, segments []model.Segment, sourceLang, targetLang string) ([]model.Segment, error)
}

// VocabularyExtractor pulls study words from a transcript.
type VocabularyExtractor interface {
	Extract(ctx context.Context, segments []model.Segment, sourceLang string, maxWords int) ([]model.Vocabulary, error)
}

// QuizGenerator writes comprehension questions about a transcript.
type QuizGenerator interface {
	Generate(ctx context.Context, segments []model.Segment, count int) ([]quiz.Question, error)
}

// Env is everything a run needs. It is built once by the caller and shared
// by every run; nothing in it is owned by the Orchestrator.
type Env struct {
	Store       store.Store
	Inspector   media.Prober
	Extractor   AudioExtractor
	Transcriber transcribe.Transcriber

	// Optional stages. A nil stage is skipped.
	Translator Translator
	Vocabulary VocabularyExtractor
	Quiz       QuizGenerator

	AudioDir     string
	SubtitlesDir string

	TargetLanguage string
	// SourceLanguage is passed to the transcriber as a hint; empty auto-detects.
	SourceLanguage string

	VocabularyWords int
	QuizQuestions   int
	SubtitleFormat  subtitle.Format
	MergeShort      bool
	// MaxDuration rejects longer videos at inspection. Zero disables the check.
	MaxDuration time.Duration

	Logger *logging.Logger
	Now    func() time.Time
}

func (e *Env) withDefaults() {
	if e.Logger == nil {
		e.Logger = logging.Nop()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.SubtitleFormat == "" {
		e.SubtitleFormat = subtitle.FormatSRT
	}
	if e.VocabularyWords <= 0 {
		e.VocabularyWords = vocabulary.DefaultMaxWords
	}
	if e.QuizQuestions <= 0 {
		e.QuizQuestions = quiz.DefaultQuestions
	}
}
