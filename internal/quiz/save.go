package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
)

var ErrNothingToSave = errors.New("no quiz questions to save")

// BatchInserter stores quiz rows in one transaction: either every row is
// written or none is.
type BatchInserter interface {
	InsertQuizzes(ctx context.Context, quizzes []model.Quiz) error
}

// Save converts questions to rows for videoID and stores them all at once.
func Save(
	ctx context.Context,
	store BatchInserter,
	logger *logging.Logger,
	questions []Question,
	videoID int64,
) (int, error) {
	if len(questions) == 0 {
		return 0, ErrNothingToSave
	}
	if logger == nil {
		logger = logging.Nop()
	}

	rows := make([]model.Quiz, len(questions))
	for i, q := range questions {
		rows[i] = q.ToRecord(videoID)
	}
	if err := store.InsertQuizzes(ctx, rows); err != nil {
		return 0, fmt.Errorf("save quizzes: %w", err)
	}

	logger.Infow("Quizzes saved", "video_id", videoID, "saved", len(rows))
	return len(rows), nil
}
