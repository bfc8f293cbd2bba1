package ffmpeg

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocatorPrefersOverride(t *testing.T) {
	dir := t.TempDir()
	ff := writeExecutable(t, dir, "ffmpeg")
	fp := writeExecutable(t, dir, "ffprobe")
	t.Setenv("LINGO_FFMPEG_PATH", "/does/not/matter")

	l := NewLocator(BinaryPaths{FFmpeg: ff, FFprobe: fp})
	paths, err := l.Ensure()
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if paths.FFmpeg != ff || paths.FFprobe != fp {
		t.Errorf("got %+v, want %s/%s", paths, ff, fp)
	}
}

func TestLocatorUsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	ff := writeExecutable(t, dir, "ffmpeg")
	fp := writeExecutable(t, dir, "ffprobe")
	t.Setenv("LINGO_FFMPEG_PATH", ff)
	t.Setenv("LINGO_FFPROBE_PATH", fp)

	l := NewLocator(BinaryPaths{})
	l.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	got, err := l.FFprobePath()
	if err != nil {
		t.Fatalf("FFprobePath: %v", err)
	}
	if got != fp {
		t.Errorf("ffprobe = %q, want %q", got, fp)
	}
}

func TestLocatorMissingBinary(t *testing.T) {
	t.Setenv("LINGO_FFMPEG_PATH", "")
	t.Setenv("LINGO_FFPROBE_PATH", "")

	calls := 0
	l := NewLocator(BinaryPaths{})
	l.lookPath = func(string) (string, error) {
		calls++
		return "", exec.ErrNotFound
	}
	if _, err := l.FFmpegPath(); err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
	if _, err := l.FFmpegPath(); err == nil {
		t.Fatal("expected cached error")
	}
	if calls != 1 {
		t.Errorf("lookPath called %d times, want 1", calls)
	}
}

func TestLocatorRejectsMissingOverride(t *testing.T) {
	l := NewLocator(BinaryPaths{FFmpeg: filepath.Join(t.TempDir(), "missing")})
	if _, err := l.Ensure(); err == nil {
		t.Fatal("expected error for missing override path")
	}
}
