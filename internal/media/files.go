package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".wma":  true,
	".aiff": true,
}

// IsVideoFile checks the extension against known video containers.
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// IsMediaFile reports whether path is audio or video by extension.
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// RemoveQuietly deletes path and ignores a missing file. It never panics.
func RemoveQuietly(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
