package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// BinaryPaths holds the resolved ffmpeg and ffprobe executables.
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator resolves the binaries once and caches the outcome.
type Locator struct {
	override BinaryPaths
	lookPath func(string) (string, error)

	once  sync.Once
	paths BinaryPaths
	err   error
}

// NewLocator returns a Locator. Non-empty override fields win over the
// LINGO_FFMPEG_PATH / LINGO_FFPROBE_PATH environment and the PATH lookup.
func NewLocator(override BinaryPaths) *Locator {
	return &Locator{override: override, lookPath: exec.LookPath}
}

func (l *Locator) Ensure() (BinaryPaths, error) {
	l.once.Do(func() {
		l.paths, l.err = l.resolve()
	})
	return l.paths, l.err
}

func (l *Locator) FFmpegPath() (string, error) {
	paths, err := l.Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func (l *Locator) FFprobePath() (string, error) {
	paths, err := l.Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (l *Locator) resolve() (BinaryPaths, error) {
	ffmpegPath, err := l.find(l.override.FFmpeg, "LINGO_FFMPEG_PATH", "ffmpeg")
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := l.find(l.override.FFprobe, "LINGO_FFPROBE_PATH", "ffprobe")
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (l *Locator) find(override, envKey, name string) (string, error) {
	for _, candidate := range []string{override, os.Getenv(envKey)} {
		if candidate == "" {
			continue
		}
		if !fileExists(candidate) {
			return "", fmt.Errorf("%s not found at %s", name, candidate)
		}
		return candidate, nil
	}
	found, err := l.lookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s not found in PATH; set %s", name, envKey)
		}
		return "", fmt.Errorf("look up %s: %w", name, err)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
