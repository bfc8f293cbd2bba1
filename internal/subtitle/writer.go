package subtitle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/lingo/internal/model"
)

// ErrNoSegments is returned when asked to render nothing.
var ErrNoSegments = errors.New("no segments to render")

// Writer serialises segments into one caption format.
type Writer interface {
	Encode(segments []model.Segment) string
	Write(segments []model.Segment, path string) error
}

// SubRip format
type SRTWriter struct {
	Bilingual bool
}

// WebVTT format
type VTTWriter struct {
	Bilingual bool
}

func NewWriter(format Format, bilingual bool) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{Bilingual: bilingual}, nil
	case FormatVTT:
		return &VTTWriter{Bilingual: bilingual}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Render writes segments to path in format, one caption block per segment.
// The translation is written as a second line when bilingual is set.
func Render(segments []model.Segment, format Format, path string, bilingual bool) error {
	w, err := NewWriter(format, bilingual)
	if err != nil {
		return err
	}
	return w.Write(segments, path)
}

func (w *SRTWriter) Encode(segments []model.Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatTimestamp(seg.Start, ','),
			formatTimestamp(seg.End, ',')))
		writeText(&sb, seg, w.Bilingual)
	}
	return sb.String()
}

func (w *SRTWriter) Write(segments []model.Segment, path string) error {
	return writeFile(path, segments, w.Encode)
}

func (w *VTTWriter) Encode(segments []model.Segment) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatTimestamp(seg.Start, '.'),
			formatTimestamp(seg.End, '.')))
		writeText(&sb, seg, w.Bilingual)
	}
	return sb.String()
}

func (w *VTTWriter) Write(segments []model.Segment, path string) error {
	return writeFile(path, segments, w.Encode)
}

func writeText(sb *strings.Builder, seg model.Segment, bilingual bool) {
	sb.WriteString(singleLine(seg.Text))
	sb.WriteString("\n")
	if bilingual && seg.HasTranslation() {
		sb.WriteString(singleLine(seg.Translation))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// blank lines would end the caption block early
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeFile(path string, segments []model.Segment, encode func([]model.Segment) string) error {
	if len(segments) == 0 {
		return ErrNoSegments
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create subtitle directory: %w", err)
	}
	return os.WriteFile(path, []byte(encode(segments)), 0644)
}

// HH:MM:SS<sep>mmm
func formatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60
	millis := int(d/time.Millisecond) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}
