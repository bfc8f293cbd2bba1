package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// supported caption formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat accepts "srt" or "vtt" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %q", s)
	}
}

// subtitle format based on file extension
func FormatFromExtension(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// file extension for a format
func (f Format) Extension() string {
	return "." + string(f)
}

// BilingualFileName is the file name used for a video's generated track.
func BilingualFileName(videoID int64, format Format) string {
	return fmt.Sprintf("video_%d_bilingual%s", videoID, format.Extension())
}
