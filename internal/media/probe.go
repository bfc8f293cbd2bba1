package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpegbin "github.com/mgpai22/lingo/internal/ffmpeg"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Info is the metadata extracted from a media file.
type Info struct {
	Path       string
	Duration   time.Duration
	FrameRate  float64
	SizeBytes  int64
	Width      int
	Height     int
	HasAudio   bool
	VideoCodec string
	AudioCodec string
}

// DurationSeconds returns the duration as float seconds.
func (i *Info) DurationSeconds() float64 {
	return i.Duration.Seconds()
}

// Resolution formats the frame size as WxH, or "" for audio-only input.
func (i *Info) Resolution() string {
	if i.Width == 0 || i.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Prober returns media metadata for a path.
type Prober interface {
	Inspect(ctx context.Context, path string) (*Info, error)
}

// Inspector reads media metadata with ffprobe.
type Inspector struct {
	locator *ffmpegbin.Locator
	runner  Runner
}

func NewInspector(locator *ffmpegbin.Locator) *Inspector {
	return &Inspector{locator: locator, runner: execRunner{}}
}

// NewInspectorWithRunner is used by tests to feed canned ffprobe output.
func NewInspectorWithRunner(locator *ffmpegbin.Locator, runner Runner) *Inspector {
	return &Inspector{locator: locator, runner: runner}
}

// ffprobe -show_format -show_streams JSON
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Duration     string `json:"duration"`
}

// Inspect returns duration, frame rate, size, resolution and audio presence.
func (i *Inspector) Inspect(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("media file not accessible: %w", err)
	}

	ffprobePath, err := i.locator.FFprobePath()
	if err != nil {
		return nil, err
	}

	out, err := i.runner.Run(ctx, ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"--", path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out, path)
}

func parseProbe(data []byte, path string) (*Info, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{Path: path}
	var streamDuration float64
	for _, stream := range probe.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if info.VideoCodec != "" {
				continue
			}
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			info.FrameRate = parseRate(stream.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = parseRate(stream.RFrameRate)
			}
			streamDuration = math.Max(streamDuration, parseFloat(stream.Duration))
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			streamDuration = math.Max(streamDuration, parseFloat(stream.Duration))
		}
	}

	seconds := parseFloat(probe.Format.Duration)
	if seconds <= 0 {
		seconds = streamDuration
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("could not determine duration of %s", path)
	}
	info.Duration = time.Duration(math.Round(seconds * float64(time.Second)))

	if size := parseFloat(probe.Format.Size); size > 0 {
		info.SizeBytes = int64(size)
	} else if stat, err := os.Stat(path); err == nil {
		info.SizeBytes = stat.Size()
	}

	return info, nil
}

// parses ffprobe rationals such as "30000/1001"
func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		return parseFloat(value)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return math.Round(n/d*1000) / 1000
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) {
		return 0
	}
	return parsed
}
