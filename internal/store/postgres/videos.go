package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/store"
)

const videoColumns = "id, user_id, title, file_path, duration, language, status, error_message, uploaded_at, processed_at"

func scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		v        model.Video
		status   string
		errorMsg *string
	)
	if err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Title,
		&v.FilePath,
		&v.Duration,
		&v.Language,
		&status,
		&errorMsg,
		&v.UploadedAt,
		&v.ProcessedAt,
	); err != nil {
		return nil, err
	}
	v.Status = model.Status(status)
	if errorMsg != nil {
		v.ErrorMessage = *errorMsg
	}
	return &v, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateVideo inserts v and sets its ID.
func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	if err := store.ValidateVideo(v); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO videos (user_id, title, file_path, duration, language, status, error_message, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		v.UserID,
		v.Title,
		v.FilePath,
		v.Duration,
		v.Language,
		string(v.Status),
		nullable(v.ErrorMessage),
		v.UploadedAt,
	).Scan(&v.ID)
	if err != nil {
		return handlePostgreSQLError(err, "failed to create video")
	}
	return nil
}

// GetVideo fetches a video by id.
func (s *Store) GetVideo(ctx context.Context, id int64) (*model.Video, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrVideoNotFound(id, err)
		}
		return nil, handlePostgreSQLError(err, "failed to get video")
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
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY uploaded_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgreSQLError(err, "failed to list videos")
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, handlePostgreSQLError(err, "failed to scan video")
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgreSQLError(err, "failed to list videos")
	}
	return videos, nil
}

// ClaimForProcessing moves a pending or failed video to processing.
func (s *Store) ClaimForProcessing(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE videos SET status = $1, error_message = NULL
		 WHERE id = $2 AND status IN ($3, $4)`,
		string(model.StatusProcessing),
		id,
		string(store.ClaimableStatuses[0]),
		string(store.ClaimableStatuses[1]),
	)
	if err != nil {
		return handlePostgreSQLError(err, "failed to claim video")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	return store.ErrNotClaimable(id, current.Status)
}

func (s *Store) updateVideo(ctx context.Context, id int64, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, append(args, id)...)
	if err != nil {
		return handlePostgreSQLError(err, "failed to "+op)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrVideoNotFound(id, nil)
	}
	return nil
}

func (s *Store) UpdateDuration(ctx context.Context, id int64, seconds float64) error {
	return s.updateVideo(ctx, id, "update duration",
		`UPDATE videos SET duration = $1 WHERE id = $2`, seconds)
}

func (s *Store) SetLanguage(ctx context.Context, id int64, lang string) error {
	return s.updateVideo(ctx, id, "set language",
		`UPDATE videos SET language = $1 WHERE id = $2`, nullable(lang))
}

func (s *Store) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return s.updateVideo(ctx, id, "mark completed",
		`UPDATE videos SET status = $1, error_message = NULL, processed_at = $2 WHERE id = $3`,
		string(model.StatusCompleted), at)
}

func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.updateVideo(ctx, id, "mark failed",
		`UPDATE videos SET status = $1, error_message = $2 WHERE id = $3`,
		string(model.StatusFailed), nullable(store.TrimMessage(message)))
}

// ResetProcessing fails every video left in processing.
func (s *Store) ResetProcessing(ctx context.Context, message string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE videos SET status = $1, error_message = $2 WHERE status = $3`,
		string(model.StatusFailed),
		nullable(store.TrimMessage(message)),
		string(model.StatusProcessing),
	)
	if err != nil {
		return 0, handlePostgreSQLError(err, "failed to reset processing videos")
	}
	return tag.RowsAffected(), nil
}
