package cli

import (
	"context"
	"fmt"

	"github.com/mgpai22/lingo/internal/config"
	ffmpegbin "github.com/mgpai22/lingo/internal/ffmpeg"
	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/pipeline"
	"github.com/mgpai22/lingo/internal/quiz"
	"github.com/mgpai22/lingo/internal/store"
	"github.com/mgpai22/lingo/internal/store/postgres"
	"github.com/mgpai22/lingo/internal/store/sqlite"
	"github.com/mgpai22/lingo/internal/subtitle"
	"github.com/mgpai22/lingo/internal/transcribe"
	"github.com/mgpai22/lingo/internal/translate"
	"github.com/mgpai22/lingo/internal/vocabulary"
)

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Database.Driver {
	case store.DriverPostgres:
		s, err := postgres.Connect(ctx, c.Database.DSN, c.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := sqlite.Open(ctx, c.Database.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func newLocator(c *config.Config) *ffmpegbin.Locator {
	return ffmpegbin.NewLocator(ffmpegbin.BinaryPaths{
		FFmpeg:  c.FFmpeg.FFmpegPath,
		FFprobe: c.FFmpeg.FFprobePath,
	})
}

func newMediaTools(c *config.Config) (*media.Inspector, *media.Extractor) {
	locator := newLocator(c)
	inspector := media.NewInspector(locator)
	return inspector, media.NewExtractor(locator, inspector, c.Storage.AudioDir)
}

func newTranscriber(c *config.Config, preparer transcribe.AudioPreparer) *transcribe.Model {
	provider := transcribe.Provider(c.Transcription.Provider)
	modelName := c.Transcription.Model
	if provider == transcribe.ProviderWhisper {
		modelName = c.Transcription.WhisperModel
	}
	return transcribe.NewModelFromConfig(transcribe.Config{
		Provider:      provider,
		APIKey:        c.APIKey(c.Transcription.Provider),
		Model:         modelName,
		WhisperBinary: c.Transcription.WhisperBinary,
		TempDir:       c.Storage.AudioDir,
		Preparer:      preparer,
	})
}

// buildEnv wires every pipeline stage from configuration.
func buildEnv(ctx context.Context, c *config.Config, st store.Store, log *logging.Logger) (pipeline.Env, error) {
	if err := c.RequireProviderKeys(); err != nil {
		return pipeline.Env{}, err
	}
	if err := c.EnsureDirectories(); err != nil {
		return pipeline.Env{}, err
	}

	format, err := subtitle.ParseFormat(c.Pipeline.SubtitleFormat)
	if err != nil {
		return pipeline.Env{}, err
	}

	provider := llm.Provider(c.Generation.Provider)
	client, err := llm.New(ctx, provider, c.APIKey(c.Generation.Provider), c.Generation.Model)
	if err != nil {
		return pipeline.Env{}, fmt.Errorf("create generation client: %w", err)
	}
	vocabClient := client
	if c.Generation.VocabularyModel != "" {
		vocabClient, err = llm.New(ctx, provider, c.APIKey(c.Generation.Provider), c.Generation.VocabularyModel)
		if err != nil {
			return pipeline.Env{}, fmt.Errorf("create vocabulary client: %w", err)
		}
	}

	inspector, extractor := newMediaTools(c)
	target := c.Pipeline.TargetLanguage

	return pipeline.Env{
		Store:       st,
		Inspector:   inspector,
		Extractor:   extractor,
		Transcriber: newTranscriber(c, extractor),
		Translator: translate.New(client, log.With("component", "translator"), translate.Options{
			Concurrency: c.Pipeline.TranslateConcurrency,
		}),
		Vocabulary: vocabulary.New(vocabClient, log.With("component", "vocabulary"), vocabulary.Options{
			TargetLanguage: target,
		}),
		Quiz: quiz.New(client, log.With("component", "quiz"), quiz.Options{
			TargetLanguage: target,
		}),
		AudioDir:        c.Storage.AudioDir,
		SubtitlesDir:    c.Storage.SubtitlesDir,
		TargetLanguage:  target,
		SourceLanguage:  c.Transcription.Language,
		VocabularyWords: c.Pipeline.VocabularyWords,
		QuizQuestions:   c.Pipeline.QuizQuestions,
		SubtitleFormat:  format,
		MergeShort:      c.Pipeline.MergeShortSegments,
		MaxDuration:     c.MaxVideoDuration(),
		Logger:          log.With("component", "pipeline"),
	}, nil
}
