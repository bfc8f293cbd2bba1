package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/media"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract audio from a video file",
	Long: `Extract the audio track from a video file as the mono 16 kHz WAV the
transcriber consumes.

Examples:
  lingo extract video.mp4
  lingo extract video.mp4 -o audio.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [media_file]",
	Short: "Show duration, frame rate, size and audio information",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(extractCmd, inspectCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output WAV path")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"
	}

	logger.Infow("Extracting audio",
		"video", videoPath,
		"output", outputPath,
		"sample_rate", media.SampleRate,
		"channels", media.Channels,
	)

	_, extractor := newMediaTools(cfg)
	path, err := extractor.ExtractAudio(cmd.Context(), videoPath, outputPath)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(path)
	fmt.Printf("Audio extracted successfully: %s\n", absOutput)
	return nil
}

type inspectView struct {
	Path       string  `json:"path" yaml:"path"`
	Duration   float64 `json:"duration" yaml:"duration"`
	FrameRate  float64 `json:"frame_rate" yaml:"frame_rate"`
	SizeBytes  int64   `json:"size_bytes" yaml:"size_bytes"`
	Resolution string  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	HasAudio   bool    `json:"has_audio" yaml:"has_audio"`
	VideoCodec string  `json:"video_codec,omitempty" yaml:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty" yaml:"audio_codec,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}

	inspector, _ := newMediaTools(cfg)
	info, err := inspector.Inspect(cmd.Context(), mediaPath)
	if err != nil {
		return err
	}

	view := inspectView{
		Path:       info.Path,
		Duration:   info.DurationSeconds(),
		FrameRate:  info.FrameRate,
		SizeBytes:  info.SizeBytes,
		Resolution: info.Resolution(),
		HasAudio:   info.HasAudio,
		VideoCodec: info.VideoCodec,
		AudioCodec: info.AudioCodec,
	}
	if ok, err := writeStructured(os.Stdout, outputFormat, view); ok {
		return err
	}

	rows := [][]string{
		{"Path", view.Path},
		{"Duration", formatSeconds(view.Duration)},
		{"Frame rate", fmt.Sprintf("%.3f", view.FrameRate)},
		{"Size", fmt.Sprintf("%d bytes", view.SizeBytes)},
		{"Resolution", orDash(view.Resolution)},
		{"Video codec", orDash(view.VideoCodec)},
		{"Audio", fmt.Sprintf("%t (%s)", view.HasAudio, orDash(view.AudioCodec))},
	}
	fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))

	if limit := cfg.MaxVideoDuration(); limit > 0 && info.Duration > limit {
		fmt.Printf("Warning: longer than the configured maximum of %s\n", limit)
	}
	return nil
}
