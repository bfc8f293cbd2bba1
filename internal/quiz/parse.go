package quiz

import (
	"strings"

	"github.com/mgpai22/lingo/internal/model"
)

// Letters labels the four options in generated blocks.
var Letters = [4]string{"A", "B", "C", "D"}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is one parsed multiple choice question. Options are in letter order.
type Question struct {
	Text        string
	Options     [4]string
	Correct     int // index into Options
	Explanation string
	Difficulty  string
}

// CorrectAnswer returns the text of the correct option.
func (q Question) CorrectAnswer() string {
	return q.Options[q.Correct]
}

// WrongAnswers returns the three options whose letter differs from the correct one.
func (q Question) WrongAnswers() [3]string {
	var out [3]string
	n := 0
	for i, opt := range q.Options {
		if i == q.Correct {
			continue
		}
		out[n] = opt
		n++
	}
	return out
}

// ToRecord converts q into a row for videoID.
func (q Question) ToRecord(videoID int64) model.Quiz {
	return model.Quiz{
		VideoID:       videoID,
		Question:      q.Text,
		CorrectAnswer: q.CorrectAnswer(),
		WrongAnswers:  q.WrongAnswers(),
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
	}
}

// ParseBlocks splits text on "---" and parses each block. Malformed blocks
// are skipped; the second return value counts them.
func ParseBlocks(text string) ([]Question, int) {
	var questions []Question
	skipped := 0
	for _, block := range strings.Split(text, "---") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		q, ok := parseBlock(block)
		if !ok {
			skipped++
			continue
		}
		questions = append(questions, q)
	}
	return questions, skipped
}

// parseBlock accepts a block with a question, exactly four options, a
// correct letter naming one of them and pairwise distinct option texts.
func parseBlock(block string) (Question, bool) {
	q := Question{Difficulty: DifficultyMedium, Correct: -1}
	var seen [4]bool
	correct := ""

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.Trim(strings.TrimSpace(key), "*"))
		value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "*"))

		switch key {
		case "QUESTION":
			q.Text = value
		case "A", "B", "C", "D":
			i := letterIndex(key)
			if seen[i] || value == "" {
				return Question{}, false
			}
			q.Options[i] = value
			seen[i] = true
		case "CORRECT":
			correct = value
		case "EXPLANATION":
			q.Explanation = value
		case "DIFFICULTY":
			q.Difficulty = normalizeDifficulty(value)
		}
	}

	if q.Text == "" {
		return Question{}, false
	}
	for _, ok := range seen {
		if !ok {
			return Question{}, false
		}
	}
	q.Correct = correctIndex(correct)
	if q.Correct < 0 {
		return Question{}, false
	}
	if !q.ToRecord(0).Distinct() {
		return Question{}, false
	}
	return q, true
}

// correctIndex reads markers like "B", "b", "B)" or "[B]".
func correctIndex(marker string) int {
	marker = strings.ToUpper(strings.TrimSpace(strings.Trim(marker, "[]() ")))
	if marker == "" {
		return -1
	}
	letter := marker[:1]
	if len(marker) > 1 {
		next := marker[1]
		if next >= 'A' && next <= 'Z' {
			return -1
		}
	}
	return letterIndex(letter)
}

func letterIndex(letter string) int {
	for i, l := range Letters {
		if l == letter {
			return i
		}
	}
	return -1
}

func normalizeDifficulty(s string) string {
	switch strings.ToLower(strings.Trim(s, "[] ")) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
