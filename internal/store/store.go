// Package store defines persistence for videos and their learning artifacts.
// Backends live in the sqlite and postgres subpackages.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/mgpai22/lingo/internal/errors"
	"github.com/mgpai22/lingo/internal/model"
)

// ListFilter narrows ListVideos. Zero values match everything.
type ListFilter struct {
	Status model.Status
	UserID int64
	Limit  int
}

// Store is the persistence surface used by the pipeline and the CLI.
// Every method writes in its own transaction, so a failing stage never
// rolls back what earlier stages committed.
type Store interface {
	CreateVideo(ctx context.Context, v *model.Video) error
	// GetVideo returns a NOT_FOUND AppError for unknown ids.
	GetVideo(ctx context.Context, id int64) (*model.Video, error)
	ListVideos(ctx context.Context, filter ListFilter) ([]model.Video, error)

	// ClaimForProcessing moves a pending or failed video to processing in a
	// single conditional update. It returns a CONFLICT AppError when the
	// video is in any other state.
	ClaimForProcessing(ctx context.Context, id int64) error
	UpdateDuration(ctx context.Context, id int64, seconds float64) error
	SetLanguage(ctx context.Context, id int64, lang string) error
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, message string) error
	// ResetProcessing marks every processing video failed with message and
	// returns how many rows changed.
	ResetProcessing(ctx context.Context, message string) (int64, error)

	CreateSubtitle(ctx context.Context, s *model.Subtitle) error
	ListSubtitles(ctx context.Context, videoID int64) ([]model.Subtitle, error)

	InsertVocabulary(ctx context.Context, v *model.Vocabulary) error
	ListVocabulary(ctx context.Context, videoID int64) ([]model.Vocabulary, error)

	// InsertQuizzes writes all rows or none.
	InsertQuizzes(ctx context.Context, quizzes []model.Quiz) error
	ListQuizzes(ctx context.Context, videoID int64) ([]model.Quiz, error)

	Close() error
}

// Driver names accepted by Open functions.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MaxErrorMessage bounds the stored failure message.
const MaxErrorMessage = 1000

// TrimMessage shortens a failure message to fit the error_message column
// without splitting a UTF-8 sequence.
func TrimMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= MaxErrorMessage {
		return msg
	}
	n := MaxErrorMessage
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n]
}

// ErrVideoNotFound builds the NOT_FOUND error returned for unknown videos.
func ErrVideoNotFound(id int64, cause error) error {
	return apperrors.Wrap(cause, apperrors.CodeNotFound, "video not found: "+strconv.FormatInt(id, 10))
}

// ErrNotClaimable builds the CONFLICT error returned by ClaimForProcessing.
func ErrNotClaimable(id int64, status model.Status) error {
	return apperrors.New(apperrors.CodeConflict, "video "+strconv.FormatInt(id, 10)+" is "+string(status))
}

// ValidateVideo checks the fields required before a video is stored.
func ValidateVideo(v *model.Video) error {
	if v == nil {
		return apperrors.New(apperrors.CodeInvalidArg, "video is nil")
	}
	if strings.TrimSpace(v.FilePath) == "" {
		return apperrors.New(apperrors.CodeInvalidArg, "video file path is required")
	}
	if strings.TrimSpace(v.Title) == "" {
		return apperrors.New(apperrors.CodeInvalidArg, "video title is required")
	}
	if v.Status == "" {
		v.Status = model.StatusPending
	}
	if !v.Status.Valid() {
		return apperrors.New(apperrors.CodeInvalidArg, "unknown video status: "+string(v.Status))
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = time.Now().UTC()
	}
	return nil
}

// ClaimableStatuses are the states ClaimForProcessing accepts.
var ClaimableStatuses = []model.Status{model.StatusPending, model.StatusFailed}
