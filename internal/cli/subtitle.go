package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/subtitle"
)

var subtitleCmd = &cobra.Command{
	Use:   "subtitle",
	Short: "Work with subtitle files",
}

var subtitleFixCmd = &cobra.Command{
	Use:   "fix [subtitle_file]",
	Short: "Repair timing in an SRT or VTT file",
	Long: `Read a subtitle file, optionally merge short captions and shift timestamps,
push overlapping captions apart (100ms gap, 1s minimum) and clamp them to the
video duration. The second line of each caption is kept as its translation.

Examples:
  lingo subtitle fix video_12_bilingual.srt
  lingo subtitle fix movie.vtt --merge --duration 5400 -o fixed.vtt
  lingo subtitle fix movie.srt --shift -1.5`,
	Args: cobra.ExactArgs(1),
	RunE: runSubtitleFix,
}

func init() {
	rootCmd.AddCommand(subtitleCmd)
	subtitleCmd.AddCommand(subtitleFixCmd)

	subtitleFixCmd.Flags().StringP("output", "o", "", "Output file (default: overwrite input)")
	subtitleFixCmd.Flags().Bool("merge", false, "Merge captions shorter than 7 seconds")
	subtitleFixCmd.Flags().Float64("duration", 0, "Video duration in seconds to clamp to")
	subtitleFixCmd.Flags().Float64("shift", 0, "Seconds to add to every timestamp (may be negative)")
}

func runSubtitleFix(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	merge, _ := cmd.Flags().GetBool("merge")
	durationSec, _ := cmd.Flags().GetFloat64("duration")
	shiftSec, _ := cmd.Flags().GetFloat64("shift")

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", inputPath)
	}
	if outputPath == "" {
		outputPath = inputPath
	}

	segments, format, err := subtitle.ParseFile(inputPath, true)
	if err != nil {
		return fmt.Errorf("failed to parse subtitles: %w", err)
	}
	if outFormat, err := subtitle.FormatFromExtension(outputPath); err == nil {
		format = outFormat
	}

	before := len(subtitle.Validate(segments))
	if shiftSec != 0 {
		segments = subtitle.Shift(segments, time.Duration(shiftSec*float64(time.Second)))
	}
	if merge {
		segments = subtitle.MergeShort(segments, subtitle.DefaultMaxMergeDuration)
	}
	segments = subtitle.FixOverlaps(segments)
	if durationSec > 0 {
		segments = subtitle.ClampToDuration(segments, time.Duration(durationSec*float64(time.Second)))
	}

	problems := subtitle.Validate(segments)
	for _, p := range problems {
		logger.Warnw("Timing problem remains", "problem", p.String())
	}

	if err := subtitle.Render(segments, format, outputPath, true); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles written: %s\n", absOutput)
	fmt.Printf("  Captions: %d\n", len(segments))
	fmt.Printf("  Problems: %d before, %d after\n", before, len(problems))
	return nil
}
