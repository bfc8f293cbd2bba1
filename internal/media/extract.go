package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/lingo/internal/ffmpeg"
)

// Output format of ExtractAudio.
const (
	SampleRate = 16000
	Channels   = 1
	AudioCodec = "pcm_s16le"
)

// ErrNoAudio is returned when the source has no audio stream.
var ErrNoAudio = errors.New("no audio track found")

// encodeFunc runs one ffmpeg invocation.
type encodeFunc func(ctx context.Context, input, output string, kwargs ffmpeg.KwArgs, binary string) error

// runFFmpeg builds the argument list with ffmpeg-go and runs it under ctx, so
// cancelling ctx kills ffmpeg.
func runFFmpeg(ctx context.Context, input, output string, kwargs ffmpeg.KwArgs, binary string) error {
	args := ffmpeg.Input(input).Output(output, kwargs).OverWriteOutput().GetArgs()
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Extractor decodes the audio track of a video into a WAV file.
type Extractor struct {
	locator *ffmpegbin.Locator
	prober  Prober
	tempDir string
	encode  encodeFunc
}

// NewExtractor returns an Extractor writing to tempDir when no output path is given.
func NewExtractor(locator *ffmpegbin.Locator, prober Prober, tempDir string) *Extractor {
	return &Extractor{
		locator: locator,
		prober:  prober,
		tempDir: tempDir,
		encode:  runFFmpeg,
	}
}

// TempPath returns a unique WAV path in the extractor's temp directory.
func (e *Extractor) TempPath(prefix string) string {
	if prefix == "" {
		prefix = "audio"
	}
	return filepath.Join(e.tempDir, fmt.Sprintf("%s_%s.wav", prefix, uuid.NewString()))
}

// ExtractAudio writes a mono 16 kHz 16-bit PCM WAV of videoPath and returns its path.
// An empty outputPath picks a unique file in the temp directory.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("video file not found: %s", videoPath)
	}

	info, err := e.prober.Inspect(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("cannot open source: %w", err)
	}
	if !info.HasAudio {
		return "", fmt.Errorf("%s: %w", filepath.Base(videoPath), ErrNoAudio)
	}

	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		outputPath = e.TempPath(base)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := e.locator.FFmpegPath()
	if err != nil {
		return "", err
	}

	kwargs := ffmpeg.KwArgs{
		"vn":     "",
		"ar":     SampleRate,
		"ac":     Channels,
		"acodec": AudioCodec,
	}

	if err := e.encode(ctx, videoPath, outputPath, kwargs, ffmpegPath); err != nil {
		_ = RemoveQuietly(outputPath)
		return "", fmt.Errorf("ffmpeg extraction failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = RemoveQuietly(outputPath)
		return "", err
	}

	return outputPath, nil
}

// Compress re-encodes audio to mono 64k mp3 for upload size limits.
func (e *Extractor) Compress(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := e.locator.FFmpegPath()
	if err != nil {
		return err
	}

	kwargs := ffmpeg.KwArgs{
		"vn":     "",
		"ar":     SampleRate,
		"ac":     Channels,
		"acodec": "libmp3lame",
		"b:a":    "64k",
	}
	if err := e.encode(ctx, inputPath, outputPath, kwargs, ffmpegPath); err != nil {
		_ = RemoveQuietly(outputPath)
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}
