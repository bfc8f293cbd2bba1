package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
)

// WhisperCLI runs the openai-whisper command line tool locally.
type WhisperCLI struct {
	binary  string
	model   string
	tempDir string
	runner  media.Runner
}

// output of whisper --output_format json
type whisperCLIOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Word        string  `json:"word"`
			Start       float64 `json:"start"`
			End         float64 `json:"end"`
			Probability float64 `json:"probability"`
		} `json:"words"`
	} `json:"segments"`
}

// NewWhisperCLI resolves binary (default "whisper") on PATH.
func NewWhisperCLI(binary, modelName, tempDir string) (*WhisperCLI, error) {
	if binary == "" {
		binary = "whisper"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("whisper binary not found: %w", err)
	}
	return NewWhisperCLIWithRunner(resolved, modelName, tempDir, media.NewExecRunner()), nil
}

// NewWhisperCLIWithRunner is used by tests to stub the command.
func NewWhisperCLIWithRunner(binary, modelName, tempDir string, runner media.Runner) *WhisperCLI {
	if modelName == "" {
		modelName = "medium"
	}
	return &WhisperCLI{binary: binary, model: modelName, tempDir: tempDir, runner: runner}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	outDir, err := os.MkdirTemp(w.tempDir, "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
		"--temperature", "0",
		"--verbose", "False",
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	if opts.Prompt != "" {
		args = append(args, "--initial_prompt", opts.Prompt)
	}

	if _, err := w.runner.Run(ctx, w.binary, args...); err != nil {
		return nil, fmt.Errorf("whisper execution failed: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	res, err := parseWhisperCLI(data)
	if err != nil {
		return nil, err
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	return finalize(res), nil
}

func parseWhisperCLI(data []byte) (*Result, error) {
	var out whisperCLIOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	res := &Result{Text: out.Text, Language: out.Language}
	for _, seg := range out.Segments {
		segment := model.Segment{
			ID:    seg.ID,
			Start: model.FromSeconds(seg.Start),
			End:   model.FromSeconds(seg.End),
			Text:  seg.Text,
		}
		for _, w := range seg.Words {
			segment.Words = append(segment.Words, model.Word{
				Word:        strings.TrimSpace(w.Word),
				Start:       model.FromSeconds(w.Start),
				End:         model.FromSeconds(w.End),
				Probability: w.Probability,
			})
		}
		res.Segments = append(res.Segments, segment)
	}
	return res, nil
}
