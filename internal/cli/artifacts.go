package cli

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/quiz"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab [video_id]",
	Short: "List the vocabulary extracted from a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runVocab,
}

var quizCmd = &cobra.Command{
	Use:   "quiz [video_id]",
	Short: "Show a video's quiz with freshly shuffled options",
	Long: `Print the stored questions for a video. Options are shuffled on every
call; the reported correct answer follows the shuffle.

Examples:
  lingo quiz 12
  lingo quiz 12 --answers
  lingo quiz 12 --seed 42 --output-format json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuiz,
}

func init() {
	rootCmd.AddCommand(vocabCmd, quizCmd)

	quizCmd.Flags().Bool("answers", false, "Show correct answers and explanations")
	quizCmd.Flags().Uint64("seed", 0, "Shuffle seed for reproducible output (0 = random)")
}

func runVocab(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetVideo(ctx, id); err != nil {
		return err
	}
	items, err := st.ListVocabulary(ctx, id)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(os.Stdout, outputFormat, items); ok {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("No vocabulary for video %d\n", id)
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, v := range items {
		rows = append(rows, []string{
			v.Word,
			v.Translation,
			orDash(v.Pronunciation),
			orDash(v.PartOfSpeech),
			orDash(v.DifficultyLevel),
			truncate(v.ExampleSentence, 50),
		})
	}
	fmt.Println(renderTable(
		[]string{"Word", "Translation", "Pronunciation", "Part of speech", "Level", "Example"},
		rows, nil,
	))
	return nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	showAnswers, _ := cmd.Flags().GetBool("answers")
	seed, _ := cmd.Flags().GetUint64("seed")
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetVideo(ctx, id); err != nil {
		return err
	}
	records, err := st.ListQuizzes(ctx, id)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}
	presented := quiz.PresentAll(records, rng)

	if ok, err := writeStructured(os.Stdout, outputFormat, presented); ok {
		return err
	}
	if len(presented) == 0 {
		fmt.Printf("No quiz for video %d\n", id)
		return nil
	}

	for i, q := range presented {
		fmt.Printf("%d. %s [%s]\n", i+1, q.Question, q.Difficulty)
		for k, opt := range q.Options {
			marker := " "
			if showAnswers && k == q.CorrectIndex {
				marker = "*"
			}
			fmt.Printf("  %s %s) %s\n", marker, quiz.Letters[k], opt)
		}
		if showAnswers && q.Explanation != "" {
			fmt.Printf("    %s\n", q.Explanation)
		}
		fmt.Println()
	}
	return nil
}
