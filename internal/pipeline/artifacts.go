package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/quiz"
	"github.com/mgpai22/lingo/internal/subtitle"
	"github.com/mgpai22/lingo/internal/vocabulary"
)

func (r *run) renderSubtitle(ctx context.Context, logger *logging.Logger) error {
	segments := r.segments
	if r.env.MergeShort {
		segments = subtitle.MergeShort(segments, subtitle.DefaultMaxMergeDuration)
	}
	segments = subtitle.FixOverlaps(segments)
	if r.info != nil && r.info.Duration > 0 {
		segments = subtitle.ClampToDuration(segments, r.info.Duration)
	}

	path := filepath.Join(r.env.SubtitlesDir, subtitle.BilingualFileName(r.videoID, r.env.SubtitleFormat))
	if err := subtitle.Render(segments, r.env.SubtitleFormat, path, true); err != nil {
		return fmt.Errorf("render %s: %w", r.env.SubtitleFormat, err)
	}

	content, err := model.EncodeSegments(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	sub := &model.Subtitle{
		VideoID:  r.videoID,
		Language: r.env.TargetLanguage,
		Content:  content,
		FilePath: path,
		Format:   string(r.env.SubtitleFormat),
	}
	if err := r.env.Store.CreateSubtitle(ctx, sub); err != nil {
		return fmt.Errorf("save subtitle: %w", err)
	}
	r.result.Subtitles = 1
	logger.Infow("Subtitle saved", "path", path, "captions", len(segments), "subtitle_id", sub.ID)
	return nil
}

func (r *run) extractVocabulary(ctx context.Context, logger *logging.Logger) error {
	if r.env.Vocabulary == nil {
		logger.Infow("No vocabulary extractor configured, skipping")
		return nil
	}
	items, err := r.env.Vocabulary.Extract(ctx, r.segments, r.language, r.env.VocabularyWords)
	if err != nil {
		return err
	}
	saved, err := vocabulary.Save(ctx, r.env.Store, logger, items, r.language, r.videoID)
	if err != nil {
		return err
	}
	r.result.Vocabulary = saved
	return nil
}

func (r *run) generateQuiz(ctx context.Context, logger *logging.Logger) error {
	if r.env.Quiz == nil {
		logger.Infow("No quiz generator configured, skipping")
		return nil
	}
	questions, err := r.env.Quiz.Generate(ctx, r.segments, r.env.QuizQuestions)
	if err != nil {
		return err
	}
	saved, err := quiz.Save(ctx, r.env.Store, logger, questions, r.videoID)
	if err != nil {
		return err
	}
	r.result.Quizzes = saved
	return nil
}
