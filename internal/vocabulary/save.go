package vocabulary

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
)

var ErrNothingSaved = errors.New("no vocabulary rows saved")

// Inserter persists a single vocabulary row and sets its ID.
type Inserter interface {
	InsertVocabulary(ctx context.Context, v *model.Vocabulary) error
}

// Save inserts one row per item, linked to videoID and tagged with lang.
// A failing row is logged and skipped; the error is returned only when no
// row was written.
func Save(
	ctx context.Context,
	store Inserter,
	logger *logging.Logger,
	items []model.Vocabulary,
	lang string,
	videoID int64,
) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: empty list", ErrNothingSaved)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	saved := 0
	var lastErr error
	for i := range items {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		v := items[i]
		id := videoID
		v.VideoID = &id
		v.Language = lang
		if err := store.InsertVocabulary(ctx, &v); err != nil {
			lastErr = err
			logger.Warnw("Failed to save vocabulary row",
				"video_id", videoID,
				"word", v.Word,
				"error", err,
			)
			continue
		}
		items[i] = v
		saved++
	}

	if saved == 0 {
		return 0, fmt.Errorf("%w: %v", ErrNothingSaved, lastErr)
	}
	logger.Infow("Vocabulary saved", "video_id", videoID, "saved", saved, "total", len(items))
	return saved, nil
}
