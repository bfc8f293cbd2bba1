package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Chunk is one slice of a longer audio file.
type Chunk struct {
	Path  string
	Index int
	Start time.Duration
	End   time.Duration
}

// Split cuts audioPath into consecutive chunks of chunkDuration in outputDir.
// Chunks are returned in order; on error any chunk already written is removed.
func (e *Extractor) Split(
	ctx context.Context,
	audioPath string,
	chunkDuration time.Duration,
	outputDir string,
) ([]Chunk, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}

	info, err := e.prober.Inspect(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := e.locator.FFmpegPath()
	if err != nil {
		return nil, err
	}

	plan := planChunks(info.Duration, chunkDuration)
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	chunks := make([]Chunk, 0, len(plan))
	for i, span := range plan {
		if err := ctx.Err(); err != nil {
			CleanupChunks(chunks)
			return nil, err
		}

		chunk := Chunk{
			Path:  filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", baseName, i, ext)),
			Index: i,
			Start: span[0],
			End:   span[1],
		}
		kwargs := ffmpeg.KwArgs{
			"ss": chunk.Start.Seconds(),
			"t":  (chunk.End - chunk.Start).Seconds(),
			"c":  "copy",
		}
		if err := e.encode(ctx, audioPath, chunk.Path, kwargs, ffmpegPath); err != nil {
			CleanupChunks(chunks)
			_ = RemoveQuietly(chunk.Path)
			return nil, fmt.Errorf("failed to create chunk %d: %w", i, err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func planChunks(total, size time.Duration) [][2]time.Duration {
	var spans [][2]time.Duration
	for start := time.Duration(0); start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		spans = append(spans, [2]time.Duration{start, end})
	}
	return spans
}

// CleanupChunks removes every chunk file and returns the last error.
func CleanupChunks(chunks []Chunk) error {
	var lastErr error
	for _, chunk := range chunks {
		if err := RemoveQuietly(chunk.Path); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
