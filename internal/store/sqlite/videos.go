package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mgpai22/lingo/internal/errors"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/store"
)

const videoColumns = "id, user_id, title, file_path, duration, language, status, error_message, uploaded_at, processed_at"

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*model.Video, error) {
	var (
		v           model.Video
		language    sql.NullString
		status      string
		errorMsg    sql.NullString
		uploadedRaw sql.NullString
		processed   sql.NullString
	)
	if err := scanner.Scan(
		&v.ID,
		&v.UserID,
		&v.Title,
		&v.FilePath,
		&v.Duration,
		&language,
		&status,
		&errorMsg,
		&uploadedRaw,
		&processed,
	); err != nil {
		return nil, err
	}

	v.Status = model.Status(status)
	v.ErrorMessage = errorMsg.String
	v.UploadedAt = parseTime(uploadedRaw)
	if language.Valid {
		lang := language.String
		v.Language = &lang
	}
	if t := parseTime(processed); !t.IsZero() {
		v.ProcessedAt = &t
	}
	return &v, nil
}

// CreateVideo inserts v and sets its ID.
func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	if err := store.ValidateVideo(v); err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO videos (user_id, title, file_path, duration, language, status, error_message, uploaded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.UserID,
		v.Title,
		v.FilePath,
		v.Duration,
		nullableString(v.DetectedLanguage()),
		v.Status,
		nullableString(v.ErrorMessage),
		formatTime(v.UploadedAt),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to create video")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	v.ID = id
	return nil
}

// GetVideo fetches a video by id.
func (s *Store) GetVideo(ctx context.Context, id int64) (*model.Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVideoNotFound(id, err)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to get video")
	}
	return v, nil
}

// ListVideos returns videos matching filter, oldest upload first.
func (s *Store) ListVideos(ctx context.Context, filter store.ListFilter) ([]model.Video, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY uploaded_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list videos")
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan video")
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list videos")
	}
	return videos, nil
}

// ClaimForProcessing moves a pending or failed video to processing.
func (s *Store) ClaimForProcessing(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE videos SET status = ?, error_message = NULL
         WHERE id = ? AND status IN (?, ?)`,
		model.StatusProcessing,
		id,
		store.ClaimableStatuses[0],
		store.ClaimableStatuses[1],
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to claim video")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	return store.ErrNotClaimable(id, current.Status)
}

func (s *Store) updateVideo(ctx context.Context, id int64, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, append(args, id)...)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to "+op)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrVideoNotFound(id, nil)
	}
	return nil
}

func (s *Store) UpdateDuration(ctx context.Context, id int64, seconds float64) error {
	return s.updateVideo(ctx, id, "update duration",
		`UPDATE videos SET duration = ? WHERE id = ?`, seconds)
}

func (s *Store) SetLanguage(ctx context.Context, id int64, lang string) error {
	return s.updateVideo(ctx, id, "set language",
		`UPDATE videos SET language = ? WHERE id = ?`, nullableString(lang))
}

func (s *Store) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return s.updateVideo(ctx, id, "mark completed",
		`UPDATE videos SET status = ?, error_message = NULL, processed_at = ? WHERE id = ?`,
		model.StatusCompleted, formatTime(at))
}

func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.updateVideo(ctx, id, "mark failed",
		`UPDATE videos SET status = ?, error_message = ? WHERE id = ?`,
		model.StatusFailed, nullableString(store.TrimMessage(message)))
}

// ResetProcessing fails every video left in processing.
func (s *Store) ResetProcessing(ctx context.Context, message string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE videos SET status = ?, error_message = ? WHERE status = ?`,
		model.StatusFailed,
		nullableString(store.TrimMessage(message)),
		model.StatusProcessing,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "failed to reset processing videos")
	}
	return res.RowsAffected()
}
