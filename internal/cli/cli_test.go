package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/subtitle"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseVideoID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVideoID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseVideoID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "-"},
		{-1, "-"},
		{59.6, "1m0s"},
		{3725, "1h2m5s"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title here", 8, "a longe…"},
		{"日本語のタイトル", 4, "日本語…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash("  "); got != "-" {
		t.Errorf("orDash(blank) = %q", got)
	}
	if got := orDash("es"); got != "es" {
		t.Errorf("orDash(es) = %q", got)
	}
}

func TestColorStatus(t *testing.T) {
	if got := colorStatus(model.StatusCompleted, false); got != "completed" {
		t.Errorf("plain status = %q", got)
	}
	got := colorStatus(model.StatusFailed, true)
	if !strings.HasPrefix(got, ansiRed) || !strings.HasSuffix(got, ansiReset) {
		t.Errorf("colored failed status = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("empty headers rendered %q", got)
	}

	out := renderTable([]string{"ID", "Title"}, [][]string{{"1", "Intro"}, {"2"}}, []columnAlignment{alignRight})
	for _, want := range []string{"ID", "Title", "Intro"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 5 {
		t.Errorf("expected bordered table, got %d lines:\n%s", lines, out)
	}
}

func TestVideoRows(t *testing.T) {
	processed := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	videos := []model.Video{
		{ID: 3, Title: "Lesson", Status: model.StatusCompleted, Duration: 90, ProcessedAt: &processed},
		{ID: 4, Title: "Pending", Status: model.StatusPending},
	}
	rows := videoRows(videos, false)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(rows[0]) != len(videoHeaders) {
		t.Fatalf("row width %d, headers %d", len(rows[0]), len(videoHeaders))
	}
	if rows[0][0] != "3" || rows[0][2] != "completed" || rows[0][4] != "1m30s" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][4] != "-" || rows[1][6] != "-" {
		t.Errorf("pending video should show dashes: %v", rows[1])
	}
}

func TestWriteStructured(t *testing.T) {
	type payload struct {
		ID   int64  `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}
	v := payload{ID: 5, Name: "clip"}

	var buf bytes.Buffer
	ok, err := writeStructured(&buf, formatTable, v)
	if ok || err != nil || buf.Len() != 0 {
		t.Fatalf("table format should not write: ok=%v err=%v out=%q", ok, err, buf.String())
	}

	buf.Reset()
	ok, err = writeStructured(&buf, formatJSON, v)
	if !ok || err != nil {
		t.Fatalf("json: ok=%v err=%v", ok, err)
	}
	var fromJSON payload
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil || fromJSON != v {
		t.Errorf("json output %q decoded to %+v (%v)", buf.String(), fromJSON, err)
	}

	buf.Reset()
	ok, err = writeStructured(&buf, formatYAML, v)
	if !ok || err != nil {
		t.Fatalf("yaml: ok=%v err=%v", ok, err)
	}
	var fromYAML payload
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil || fromYAML != v {
		t.Errorf("yaml output %q decoded to %+v (%v)", buf.String(), fromYAML, err)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Error("buffer should never be colorized")
	}
}

func TestSubtitleFixRepairsOverlaps(t *testing.T) {
	logger = logging.Nop()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.srt")
	out := filepath.Join(dir, "out.vtt")
	content := "1\n00:00:01,000 --> 00:00:04,000\nHola\nHello\n\n" +
		"2\n00:00:03,000 --> 00:00:06,000\nAdiós\nGoodbye\n\n"
	if err := os.WriteFile(in, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := subtitleFixCmd
	if err := cmd.Flags().Set("output", out); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cmd.Flags().Set("output", "") })

	if err := runSubtitleFix(cmd, []string{in}); err != nil {
		t.Fatalf("runSubtitleFix: %v", err)
	}

	segments, format, err := subtitle.ParseFile(out, true)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if format != subtitle.FormatVTT {
		t.Errorf("format = %v, want vtt", format)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[1].Start != 4100*time.Millisecond {
		t.Errorf("second start = %v, want 4.1s", segments[1].Start)
	}
	if segments[1].Translation != "Goodbye" {
		t.Errorf("translation = %q", segments[1].Translation)
	}
	if problems := subtitle.Validate(segments); len(problems) != 0 {
		t.Errorf("problems remain: %v", problems)
	}
}

func TestSubtitleFixMissingFile(t *testing.T) {
	logger = logging.Nop()
	err := runSubtitleFix(subtitleFixCmd, []string{filepath.Join(t.TempDir(), "nope.srt")})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}
