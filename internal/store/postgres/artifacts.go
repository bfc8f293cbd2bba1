package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mgpai22/lingo/internal/model"
)

// CreateSubtitle inserts sub and sets its ID.
func (s *Store) CreateSubtitle(ctx context.Context, sub *model.Subtitle) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO subtitles (video_id, language, content, file_path, format, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		sub.VideoID,
		sub.Language,
		sub.Content,
		sub.FilePath,
		sub.Format,
		sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return handlePostgreSQLError(err, "failed to create subtitle")
	}
	return nil
}

func (s *Store) ListSubtitles(ctx context.Context, videoID int64) ([]model.Subtitle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, video_id, language, content, file_path, format, created_at
		 FROM subtitles WHERE video_id = $1 ORDER BY id`, videoID)
	if err != nil {
		return nil, handlePostgreSQLError(err, "failed to list subtitles")
	}
	defer rows.Close()

	subtitles := []model.Subtitle{}
	for rows.Next() {
		var sub model.Subtitle
		if err := rows.Scan(&sub.ID, &sub.VideoID, &sub.Language, &sub.Content, &sub.FilePath, &sub.Format, &sub.CreatedAt); err != nil {
			return nil, handlePostgreSQLError(err, "failed to scan subtitle")
		}
		subtitles = append(subtitles, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgreSQLError(err, "failed to list subtitles")
	}
	return subtitles, nil
}

// InsertVocabulary inserts a single row and sets its ID.
func (s *Store) InsertVocabulary(ctx context.Context, v *model.Vocabulary) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO vocabulary (
			video_id, word, translation, pronunciation, part_of_speech,
			example_sentence, example_translation, language, difficulty_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		v.VideoID,
		v.Word,
		v.Translation,
		v.Pronunciation,
		v.PartOfSpeech,
		v.ExampleSentence,
		v.ExampleTranslation,
		v.Language,
		v.DifficultyLevel,
	).Scan(&v.ID)
	if err != nil {
		return handlePostgreSQLError(err, "failed to insert vocabulary")
	}
	return nil
}

func (s *Store) ListVocabulary(ctx context.Context, videoID int64) ([]model.Vocabulary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, video_id, word, translation, pronunciation, part_of_speech,
		        example_sentence, example_translation, language, difficulty_level
		 FROM vocabulary WHERE video_id = $1 ORDER BY id`, videoID)
	if err != nil {
		return nil, handlePostgreSQLError(err, "failed to list vocabulary")
	}
	defer rows.Close()

	items := []model.Vocabulary{}
	for rows.Next() {
		var v model.Vocabulary
		if err := rows.Scan(&v.ID, &v.VideoID, &v.Word, &v.Translation, &v.Pronunciation,
			&v.PartOfSpeech, &v.ExampleSentence, &v.ExampleTranslation, &v.Language,
			&v.DifficultyLevel); err != nil {
			return nil, handlePostgreSQLError(err, "failed to scan vocabulary")
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgreSQLError(err, "failed to list vocabulary")
	}
	return items, nil
}

// InsertQuizzes writes every row in one transaction.
func (s *Store) InsertQuizzes(ctx context.Context, quizzes []model.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return handlePostgreSQLError(err, "failed to begin quiz transaction")
	}

	ids := make([]int64, len(quizzes))
	for i, q := range quizzes {
		err := tx.QueryRow(ctx,
			`INSERT INTO quizzes (
				video_id, question, correct_answer, wrong_answer_1, wrong_answer_2,
				wrong_answer_3, explanation, difficulty
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			q.VideoID,
			q.Question,
			q.CorrectAnswer,
			q.WrongAnswers[0],
			q.WrongAnswers[1],
			q.WrongAnswers[2],
			q.Explanation,
			q.Difficulty,
		).Scan(&ids[i])
		if err != nil {
			_ = tx.Rollback(ctx)
			return handlePostgreSQLError(fmt.Errorf("quiz %d: %w", i+1, err), "failed to insert quizzes")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgreSQLError(err, "failed to commit quizzes")
	}
	for i := range quizzes {
		quizzes[i].ID = ids[i]
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, videoID int64) ([]model.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, video_id, question, correct_answer, wrong_answer_1, wrong_answer_2,
		        wrong_answer_3, explanation, difficulty
		 FROM quizzes WHERE video_id = $1 ORDER BY id`, videoID)
	if err != nil {
		return nil, handlePostgreSQLError(err, "failed to list quizzes")
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Question, &q.CorrectAnswer,
			&q.WrongAnswers[0], &q.WrongAnswers[1], &q.WrongAnswers[2],
			&q.Explanation, &q.Difficulty); err != nil {
			return nil, handlePostgreSQLError(err, "failed to scan quiz")
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgreSQLError(err, "failed to list quizzes")
	}
	return quizzes, nil
}
