package model

import (
	"strings"
	"time"
)

// Subtitle format tags.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// Subtitle is one generated subtitle artifact for a video.
type Subtitle struct {
	ID        int64     `json:"id" yaml:"id"`
	VideoID   int64     `json:"video_id" yaml:"video_id"`
	Language  string    `json:"language" yaml:"language"`
	Content   string    `json:"-" yaml:"-"` // JSON encoded []Segment
	FilePath  string    `json:"file_path" yaml:"file_path"`
	Format    string    `json:"format" yaml:"format"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Vocabulary is one extracted vocabulary item.
type Vocabulary struct {
	ID                 int64  `json:"id,omitempty" yaml:"id,omitempty"`
	VideoID            *int64 `json:"video_id,omitempty" yaml:"video_id,omitempty"`
	Word               string `json:"word" yaml:"word"`
	Translation        string `json:"translation" yaml:"translation"`
	Pronunciation      string `json:"pronunciation" yaml:"pronunciation"`
	PartOfSpeech       string `json:"part_of_speech" yaml:"part_of_speech"`
	ExampleSentence    string `json:"example_sentence" yaml:"example_sentence"`
	ExampleTranslation string `json:"example_translation" yaml:"example_translation"`
	Language           string `json:"language" yaml:"language"`
	DifficultyLevel    string `json:"difficulty_level" yaml:"difficulty_level"`
}

// Quiz is one persisted multiple choice question.
type Quiz struct {
	ID            int64     `json:"id,omitempty" yaml:"id,omitempty"`
	VideoID       int64     `json:"video_id" yaml:"video_id"`
	Question      string    `json:"question" yaml:"question"`
	CorrectAnswer string    `json:"correct_answer" yaml:"correct_answer"`
	WrongAnswers  [3]string `json:"wrong_answers" yaml:"wrong_answers"`
	Explanation   string    `json:"explanation" yaml:"explanation"`
	Difficulty    string    `json:"difficulty" yaml:"difficulty"`
}

// Distinct reports whether the correct answer differs from every wrong answer
// and the wrong answers differ from each other.
func (q Quiz) Distinct() bool {
	seen := map[string]bool{NormalizeAnswer(q.CorrectAnswer): true}
	for _, w := range q.WrongAnswers {
		key := NormalizeAnswer(w)
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// NormalizeAnswer folds case and whitespace for answer comparison.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
