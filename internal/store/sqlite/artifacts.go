package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mgpai22/lingo/internal/errors"
	"github.com/mgpai22/lingo/internal/model"
)

// wrapWrite maps foreign key failures to DEPENDENCY_ERROR.
func wrapWrite(err error, message string) error {
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return apperrors.Wrap(err, apperrors.CodeDependency, "referenced video does not exist")
	}
	return apperrors.Wrap(err, apperrors.CodeInternal, message)
}

// CreateSubtitle inserts s and sets its ID.
func (s *Store) CreateSubtitle(ctx context.Context, sub *model.Subtitle) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO subtitles (video_id, language, content, file_path, format, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		sub.VideoID,
		sub.Language,
		sub.Content,
		sub.FilePath,
		sub.Format,
		formatTime(sub.CreatedAt),
	)
	if err != nil {
		return wrapWrite(err, "failed to create subtitle")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	return nil
}

func (s *Store) ListSubtitles(ctx context.Context, videoID int64) ([]model.Subtitle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, language, content, file_path, format, created_at
         FROM subtitles WHERE video_id = ? ORDER BY id`, videoID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list subtitles")
	}
	defer rows.Close()

	subtitles := []model.Subtitle{}
	for rows.Next() {
		var (
			sub     model.Subtitle
			created sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.VideoID, &sub.Language, &sub.Content, &sub.FilePath, &sub.Format, &created); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan subtitle")
		}
		sub.CreatedAt = parseTime(created)
		subtitles = append(subtitles, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list subtitles")
	}
	return subtitles, nil
}

// InsertVocabulary inserts a single row and sets its ID.
func (s *Store) InsertVocabulary(ctx context.Context, v *model.Vocabulary) error {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO vocabulary (
            video_id, word, translation, pronunciation, part_of_speech,
            example_sentence, example_translation, language, difficulty_level
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VideoID,
		v.Word,
		v.Translation,
		v.Pronunciation,
		v.PartOfSpeech,
		v.ExampleSentence,
		v.ExampleTranslation,
		v.Language,
		v.DifficultyLevel,
	)
	if err != nil {
		return wrapWrite(err, "failed to insert vocabulary")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	v.ID = id
	return nil
}

func (s *Store) ListVocabulary(ctx context.Context, videoID int64) ([]model.Vocabulary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, word, translation, pronunciation, part_of_speech,
                example_sentence, example_translation, language, difficulty_level
         FROM vocabulary WHERE video_id = ? ORDER BY id`, videoID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list vocabulary")
	}
	defer rows.Close()

	items := []model.Vocabulary{}
	for rows.Next() {
		var (
			v          model.Vocabulary
			vid        sql.NullInt64
			pron       sql.NullString
			pos        sql.NullString
			example    sql.NullString
			exampleTr  sql.NullString
			difficulty sql.NullString
		)
		if err := rows.Scan(&v.ID, &vid, &v.Word, &v.Translation, &pron, &pos,
			&example, &exampleTr, &v.Language, &difficulty); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan vocabulary")
		}
		if vid.Valid {
			id := vid.Int64
			v.VideoID = &id
		}
		v.Pronunciation = pron.String
		v.PartOfSpeech = pos.String
		v.ExampleSentence = example.String
		v.ExampleTranslation = exampleTr.String
		v.DifficultyLevel = difficulty.String
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list vocabulary")
	}
	return items, nil
}

// InsertQuizzes writes every row in one transaction.
func (s *Store) InsertQuizzes(ctx context.Context, quizzes []model.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	ids := make([]int64, len(quizzes))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO quizzes (
                video_id, question, correct_answer, wrong_answer_1, wrong_answer_2,
                wrong_answer_3, explanation, difficulty
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, q := range quizzes {
			res, err := stmt.ExecContext(ctx,
				q.VideoID,
				q.Question,
				q.CorrectAnswer,
				q.WrongAnswers[0],
				q.WrongAnswers[1],
				q.WrongAnswers[2],
				q.Explanation,
				q.Difficulty,
			)
			if err != nil {
				return fmt.Errorf("quiz %d: %w", i+1, err)
			}
			if ids[i], err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapWrite(err, "failed to insert quizzes")
	}
	for i := range quizzes {
		quizzes[i].ID = ids[i]
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, videoID int64) ([]model.Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, question, correct_answer, wrong_answer_1, wrong_answer_2,
                wrong_answer_3, explanation, difficulty
         FROM quizzes WHERE video_id = ? ORDER BY id`, videoID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list quizzes")
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		var (
			q           model.Quiz
			explanation sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Question, &q.CorrectAnswer,
			&q.WrongAnswers[0], &q.WrongAnswers[1], &q.WrongAnswers[2],
			&explanation, &q.Difficulty); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan quiz")
		}
		q.Explanation = explanation.String
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list quizzes")
	}
	return quizzes, nil
}
