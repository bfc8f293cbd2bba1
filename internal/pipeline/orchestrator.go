package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/mgpai22/lingo/internal/errors"
	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/transcribe"
)

// Stage names used in logs and failure messages.
const (
	StageInspect      = "inspect"
	StageExtractAudio = "extract_audio"
	StageTranscribe   = "transcribe"
	StageTranslate    = "translate"
	StageSubtitle     = "subtitle"
	StageVocabulary   = "vocabulary"
	StageQuiz         = "quiz"
)

// Outcome messages that callers may match on.
const (
	MsgAlreadyCompleted  = "already completed"
	MsgAlreadyProcessing = "already processing"
)

var (
	ErrTooLong     = errors.New("video exceeds maximum duration")
	ErrNoSpeech    = errors.New("transcription produced no segments")
	ErrInterrupted = errors.New("interrupted")
)

// Result is what a run reports back to its caller.
type Result struct {
	VideoID   int64  `json:"video_id" yaml:"video_id"`
	RequestID string `json:"request_id" yaml:"request_id"`
	Success   bool   `json:"success" yaml:"success"`
	Message   string `json:"message" yaml:"message"`

	Subtitles  int `json:"subtitles" yaml:"subtitles"`
	Vocabulary int `json:"vocabulary" yaml:"vocabulary"`
	Quizzes    int `json:"quizzes" yaml:"quizzes"`
	// Warnings lists best-effort stages that failed without stopping the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Orchestrator runs the fixed stage sequence for one video at a time.
// It is safe to call Run concurrently for different videos.
type Orchestrator struct {
	env Env
}

func New(env Env) *Orchestrator {
	env.withDefaults()
	return &Orchestrator{env: env}
}

// run holds the state of one invocation.
type run struct {
	env     *Env
	videoID int64
	logger  *logging.Logger
	result  *Result

	video     *model.Video
	claimed   bool
	info      *media.Info
	audioPath string
	language  string
	segments  []model.Segment
}

// Run processes videoID end to end. A completed video is reported as a
// success without running any stage; a video already processing is refused.
// Critical stage failures mark the video failed. Run never panics.
func (o *Orchestrator) Run(ctx context.Context, videoID int64) (res Result) {
	requestID := uuid.NewString()
	res = Result{VideoID: videoID, RequestID: requestID}
	r := &run{
		env:     &o.env,
		videoID: videoID,
		logger:  o.env.Logger.With("video_id", videoID, "request_id", requestID),
		result:  &res,
	}

	defer r.removeAudio()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorw("Pipeline panicked", "panic", p, "stack", string(debug.Stack()))
			res.Success = false
			res.Message = fmt.Sprintf("unexpected error: %v", p)
			if r.claimed {
				r.markFailed(ctx, res.Message)
			}
		}
	}()

	if done, ok := r.begin(ctx); done {
		res.Success = ok
		return res
	}

	if err := r.critical(ctx, StageInspect, r.inspect); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.critical(ctx, StageExtractAudio, r.extractAudio); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.critical(ctx, StageTranscribe, r.transcribe); err != nil {
		return r.fail(ctx, err)
	}

	r.bestEffort(ctx, StageTranslate, r.translate)
	r.bestEffort(ctx, StageSubtitle, r.renderSubtitle)
	r.bestEffort(ctx, StageVocabulary, r.extractVocabulary)
	r.bestEffort(ctx, StageQuiz, r.generateQuiz)

	if err := ctx.Err(); err != nil {
		return r.fail(ctx, fmt.Errorf("%w: %v", ErrInterrupted, err))
	}
	if err := r.env.Store.MarkCompleted(ctx, videoID, r.env.Now().UTC()); err != nil {
		return r.fail(ctx, fmt.Errorf("mark completed: %w", err))
	}

	res.Success = true
	res.Message = fmt.Sprintf("processed: %d subtitle, %d vocabulary, %d quiz",
		res.Subtitles, res.Vocabulary, res.Quizzes)
	r.logger.Infow("Pipeline completed",
		"subtitles", res.Subtitles,
		"vocabulary", res.Vocabulary,
		"quizzes", res.Quizzes,
		"warnings", len(res.Warnings),
	)
	return res
}

// begin loads and claims the video. done is set when the run must stop
// here, with ok as its success flag.
func (r *run) begin(ctx context.Context) (done bool, ok bool) {
	video, err := r.env.Store.GetVideo(ctx, r.videoID)
	if err != nil {
		r.logger.Errorw("Failed to load video", "error", err)
		r.result.Message = err.Error()
		return true, false
	}

	switch video.Status {
	case model.StatusCompleted:
		r.logger.Infow("Video already completed, skipping")
		r.result.Message = MsgAlreadyCompleted
		return true, true
	case model.StatusProcessing:
		r.logger.Warnw("Video already processing")
		r.result.Message = MsgAlreadyProcessing
		return true, false
	}

	if err := r.env.Store.ClaimForProcessing(ctx, r.videoID); err != nil {
		r.logger.Warnw("Failed to claim video", "error", err)
		if apperrors.IsConflict(err) {
			r.result.Message = MsgAlreadyProcessing
		} else {
			r.result.Message = err.Error()
		}
		return true, false
	}
	r.claimed = true
	r.video = video
	r.logger.Infow("Processing started", "file", video.FilePath, "title", video.Title)
	return false, false
}

type stageFunc func(ctx context.Context, logger *logging.Logger) error

func (r *run) critical(ctx context.Context, stage string, fn stageFunc) error {
	logger := r.logger.With("stage", stage)
	start := time.Now()
	logger.Infow("Stage started")
	if err := fn(ctx, logger); err != nil {
		logger.Errorw("Stage failed", "error", err, "elapsed", time.Since(start))
		return fmt.Errorf("%s: %w", stage, err)
	}
	logger.Infow("Stage completed", "elapsed", time.Since(start))
	return nil
}

// bestEffort runs fn and records, but otherwise swallows, its error or panic.
func (r *run) bestEffort(ctx context.Context, stage string, fn stageFunc) {
	logger := r.logger.With("stage", stage)
	start := time.Now()
	logger.Infow("Stage started")

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.Errorw("Stage panicked", "panic", p, "stack", string(debug.Stack()))
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return fn(ctx, logger)
	}()
	if err != nil {
		logger.Warnw("Stage failed, continuing", "error", err, "elapsed", time.Since(start))
		r.result.Warnings = append(r.result.Warnings, fmt.Sprintf("%s: %v", stage, err))
		return
	}
	logger.Infow("Stage completed", "elapsed", time.Since(start))
}

func (r *run) fail(ctx context.Context, err error) Result {
	r.result.Success = false
	r.result.Message = err.Error()
	r.markFailed(ctx, r.result.Message)
	return *r.result
}

// markFailed records the failure even when ctx is already cancelled.
func (r *run) markFailed(ctx context.Context, message string) {
	if err := r.env.Store.MarkFailed(context.WithoutCancel(ctx), r.videoID, message); err != nil {
		r.logger.Errorw("Failed to mark video failed", "error", err, "message", message)
		return
	}
	r.logger.Errorw("Processing failed", "message", message)
}

func (r *run) removeAudio() {
	if r.audioPath == "" {
		return
	}
	if err := media.RemoveQuietly(r.audioPath); err != nil {
		r.logger.Warnw("Failed to remove temporary audio", "path", r.audioPath, "error", err)
		return
	}
	r.logger.Debugw("Temporary audio removed", "path", r.audioPath)
}

func (r *run) inspect(ctx context.Context, logger *logging.Logger) error {
	info, err := r.env.Inspector.Inspect(ctx, r.video.FilePath)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("no media information for %s", r.video.FilePath)
	}
	logger.Infow("Media inspected",
		"duration", info.Duration,
		"resolution", info.Resolution(),
		"has_audio", info.HasAudio,
		"size_bytes", info.SizeBytes,
	)
	if r.env.MaxDuration > 0 && info.Duration > r.env.MaxDuration {
		return fmt.Errorf("%w: %s > %s", ErrTooLong, info.Duration, r.env.MaxDuration)
	}
	r.info = info

	if err := r.env.Store.UpdateDuration(ctx, r.videoID, info.DurationSeconds()); err != nil {
		return fmt.Errorf("update duration: %w", err)
	}
	return nil
}

func (r *run) extractAudio(ctx context.Context, logger *logging.Logger) error {
	// set before extraction so a partial file is removed too
	r.audioPath = filepath.Join(r.env.AudioDir, fmt.Sprintf("video_%d_%s.wav", r.videoID, uuid.NewString()))
	path, err := r.env.Extractor.ExtractAudio(ctx, r.video.FilePath, r.audioPath)
	if err != nil {
		return err
	}
	r.audioPath = path
	logger.Infow("Audio extracted", "path", path)
	return nil
}

func (r *run) transcribe(ctx context.Context, logger *logging.Logger) error {
	res, err := r.env.Transcriber.Transcribe(ctx, r.audioPath, transcribe.Options{Language: r.env.SourceLanguage})
	if err != nil {
		return err
	}
	if res == nil || len(res.Segments) == 0 {
		return ErrNoSpeech
	}
	r.segments = res.Segments

	r.language = language.Normalize(res.Language)
	if r.language == "" {
		r.language = language.Normalize(r.env.SourceLanguage)
	}
	logger.Infow("Transcription completed",
		"segments", len(res.Segments),
		"language", r.language,
		"language_probability", res.LanguageProbability,
	)
	if r.language != "" {
		if err := r.env.Store.SetLanguage(ctx, r.videoID, r.language); err != nil {
			return fmt.Errorf("set language: %w", err)
		}
	}
	return nil
}

// translate replaces r.segments only on success, so a failure leaves the
// untranslated transcript for the following stages.
func (r *run) translate(ctx context.Context, logger *logging.Logger) error {
	if r.env.Translator == nil {
		logger.Infow("No translator configured, keeping original text")
		return nil
	}
	translated, err := r.env.Translator.Translate(ctx, r.segments, r.language, r.env.TargetLanguage)
	if err != nil {
		return fmt.Errorf("falling back to untranslated segments: %w", err)
	}
	if len(translated) == 0 {
		return errors.New("translator returned no segments, falling back to untranslated segments")
	}
	logger.Infow("Segments translated", "input", len(r.segments), "output", len(translated))
	r.segments = translated
	return nil
}
