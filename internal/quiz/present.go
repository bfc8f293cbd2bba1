package quiz

import (
	"math/rand/v2"

	"github.com/mgpai22/lingo/internal/model"
)

// Presented is a stored question with its options shuffled for display.
// The correct answer is only exposed as an index.
type Presented struct {
	ID           int64    `json:"id" yaml:"id"`
	Question     string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_answer" yaml:"correct_answer"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
	Difficulty   string   `json:"difficulty" yaml:"difficulty"`
}

// Check reports whether selected is the index of the correct option.
func (p Presented) Check(selected int) bool {
	return selected == p.CorrectIndex
}

// Present shuffles the four options of q with rng. A nil rng uses the
// global source; every call produces a fresh order.
func Present(q model.Quiz, rng *rand.Rand) Presented {
	options := []string{q.CorrectAnswer, q.WrongAnswers[0], q.WrongAnswers[1], q.WrongAnswers[2]}
	correct := 0

	swap := func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	}
	if rng != nil {
		rng.Shuffle(len(options), swap)
	} else {
		rand.Shuffle(len(options), swap)
	}

	return Presented{
		ID:           q.ID,
		Question:     q.Question,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  q.Explanation,
		Difficulty:   q.Difficulty,
	}
}

// PresentAll presents every question independently.
func PresentAll(quizzes []model.Quiz, rng *rand.Rand) []Presented {
	out := make([]Presented, len(quizzes))
	for i, q := range quizzes {
		out[i] = Present(q, rng)
	}
	return out
}
