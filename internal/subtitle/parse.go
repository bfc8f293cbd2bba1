package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/lingo/internal/model"
)

// HH:MM:SS,mmm (srt) or [HH:]MM:SS.mmm (vtt), optional trailing cue settings
var timingRegex = regexp.MustCompile(
	`^\s*(?:(\d{2,}):)?(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(?:(\d{2,}):)?(\d{2}):(\d{2})[,.](\d{3})`,
)

// ParseFile reads an srt or vtt file back into segments. With bilingual set
// the first text line of a block is the source text and the remaining lines
// the translation; otherwise all lines form the text.
func ParseFile(path string, bilingual bool) ([]model.Segment, Format, error) {
	format, err := FormatFromExtension(path)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	segments, err := Parse(file, bilingual)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return segments, format, nil
}

// Parse reads srt or vtt caption blocks from r.
func Parse(r io.Reader, bilingual bool) ([]model.Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		segments  []model.Segment
		current   *model.Segment
		textLines []string
		lineNum   int
		skipBlock bool
	)

	flush := func() {
		if current != nil && len(textLines) > 0 {
			if bilingual {
				current.Text = textLines[0]
				current.Translation = strings.Join(textLines[1:], " ")
			} else {
				current.Text = strings.Join(textLines, "\n")
			}
			current.ID = len(segments)
			segments = append(segments, *current)
		}
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}

		if current == nil {
			switch {
			case strings.HasPrefix(trimmed, "WEBVTT"),
				strings.HasPrefix(trimmed, "NOTE"),
				strings.HasPrefix(trimmed, "STYLE"),
				strings.HasPrefix(trimmed, "REGION"):
				skipBlock = true
				continue
			}
		}

		if m := timingRegex.FindStringSubmatch(line); m != nil {
			// a timing line always opens a new cue
			flush()
			start, err := parseTimestamp(m[1], m[2], m[3], m[4])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := parseTimestamp(m[5], m[6], m[7], m[8])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			current = &model.Segment{Start: start, End: end}
			continue
		}

		// srt index or vtt cue identifier before the timing line
		if current == nil {
			continue
		}
		textLines = append(textLines, trimmed)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading subtitle file: %w", err)
	}
	return segments, nil
}

func parseTimestamp(hours, minutes, seconds, millis string) (time.Duration, error) {
	var h int
	if hours != "" {
		var err error
		if h, err = strconv.Atoi(hours); err != nil {
			return 0, err
		}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("out of range: %s:%s", minutes, seconds)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
