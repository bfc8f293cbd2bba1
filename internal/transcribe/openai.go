package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
)

const (
	// Whisper API rejects uploads above 25 MB
	maxUploadBytes = 24 << 20
	chunkLength    = 10 * time.Minute
)

// implements Transcriber using the OpenAI Audio API
type OpenAI struct {
	client   openai.Client
	model    string
	preparer AudioPreparer
	tempDir  string
}

// verbose_json response from Whisper
type whisperVerboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

func NewOpenAI(apiKey, modelName string, opts ...option.RequestOption) *OpenAI {
	if modelName == "" {
		modelName = "whisper-1"
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   modelName,
		tempDir: os.TempDir(),
	}
}

// Transcribe sends audioPath to Whisper. Files over the upload limit are
// compressed and, if still too large, split and transcribed chunk by chunk.
func (t *OpenAI) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	stat, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}
	if stat.Size() <= maxUploadBytes {
		res, err := t.transcribeFile(ctx, audioPath, opts)
		if err != nil {
			return nil, err
		}
		return finalize(res), nil
	}

	if t.preparer == nil {
		return nil, fmt.Errorf("audio file is %d bytes, above the %d byte upload limit", stat.Size(), maxUploadBytes)
	}

	workDir, err := os.MkdirTemp(t.tempDir, "whisper-upload-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	compressed := filepath.Join(workDir, uuid.NewString()+".mp3")
	if err := t.preparer.Compress(ctx, audioPath, compressed); err != nil {
		return nil, err
	}
	if stat, err := os.Stat(compressed); err == nil && stat.Size() <= maxUploadBytes {
		res, err := t.transcribeFile(ctx, compressed, opts)
		if err != nil {
			return nil, err
		}
		return finalize(res), nil
	}

	chunks, err := t.preparer.Split(ctx, compressed, chunkLength, filepath.Join(workDir, "chunks"))
	if err != nil {
		return nil, err
	}
	defer media.CleanupChunks(chunks)

	return t.transcribeChunks(ctx, chunks, opts)
}

func (t *OpenAI) transcribeChunks(ctx context.Context, chunks []media.Chunk, opts Options) (*Result, error) {
	merged := &Result{}
	var texts []string
	for _, chunk := range chunks {
		res, err := t.transcribeFile(ctx, chunk.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("chunk %d failed: %w", chunk.Index, err)
		}
		merged.Segments = append(merged.Segments, offsetSegments(res.Segments, chunk.Start)...)
		texts = append(texts, res.Text)
		if merged.Language == "" {
			merged.Language = res.Language
			// later chunks keep the first chunk's language
			if opts.Language == "" && res.Language != "" {
				opts.Language = language.Normalize(res.Language)
			}
		}
	}
	merged.Text = strings.Join(texts, " ")
	if len(chunks) > 0 {
		merged.Duration = chunks[len(chunks)-1].End
	}
	return finalize(merged), nil
}

func (t *OpenAI) transcribeFile(ctx context.Context, path string, opts Options) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment", "word"},
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}
	if opts.Prompt != "" {
		params.Prompt = openai.String(opts.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	res, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		if strings.TrimSpace(resp.Text) == "" {
			return nil, err
		}
		return &Result{Text: resp.Text, Language: opts.Language}, nil
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	return res, nil
}

func parseVerboseJSON(rawJSON string) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	duration := model.FromSeconds(resp.Duration)
	res := &Result{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: duration,
	}

	if len(resp.Segments) == 0 {
		if strings.TrimSpace(resp.Text) == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		res.Segments = []model.Segment{{End: duration, Text: resp.Text}}
		return res, nil
	}

	for _, seg := range resp.Segments {
		res.Segments = append(res.Segments, model.Segment{
			Start: model.FromSeconds(seg.Start),
			End:   model.FromSeconds(seg.End),
			Text:  seg.Text,
		})
	}

	words := make([]model.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, model.Word{
			Word:  strings.TrimSpace(w.Word),
			Start: model.FromSeconds(w.Start),
			End:   model.FromSeconds(w.End),
		})
	}
	attachWords(res.Segments, words)

	return res, nil
}
