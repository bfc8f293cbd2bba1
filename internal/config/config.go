// Package config loads lingo settings from TOML, .env files and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Storage holds filesystem locations written by the pipeline.
type Storage struct {
	Root         string `toml:"root" env:"LINGO_STORAGE_ROOT" validate:"required"`
	SubtitlesDir string `toml:"subtitles_dir" env:"SUBTITLE_FOLDER" validate:"required"`
	AudioDir     string `toml:"audio_dir" env:"PROCESSED_AUDIO_FOLDER" validate:"required"`
}

// Database selects and configures the persistent store.
type Database struct {
	Driver   string `toml:"driver" env:"LINGO_DB_DRIVER" validate:"oneof=sqlite postgres"`
	Path     string `toml:"path" env:"LINGO_DB_PATH" validate:"required_if=Driver sqlite"`
	DSN      string `toml:"dsn" env:"DATABASE_URL" validate:"required_if=Driver postgres"`
	MaxConns int32  `toml:"max_conns" env:"LINGO_DB_MAX_CONNS" validate:"gte=1"`
}

// Transcription configures the speech-to-text provider.
type Transcription struct {
	Provider      string `toml:"provider" env:"LINGO_TRANSCRIBE_PROVIDER" validate:"oneof=openai gemini whisper"`
	Model         string `toml:"model" env:"LINGO_TRANSCRIBE_MODEL"`
	WhisperBinary string `toml:"whisper_binary" env:"LINGO_WHISPER_BINARY"`
	WhisperModel  string `toml:"whisper_model" env:"WHISPER_MODEL"`
	Language      string `toml:"language" env:"LINGO_TRANSCRIBE_LANGUAGE"`
}

// Generation configures the text generation provider used by the translator,
// vocabulary extractor and quiz generator.
type Generation struct {
	Provider        string `toml:"provider" env:"LINGO_LLM_PROVIDER" validate:"oneof=openai anthropic gemini"`
	Model           string `toml:"model" env:"OPENAI_MODEL"`
	VocabularyModel string `toml:"vocabulary_model" env:"LINGO_VOCABULARY_MODEL"`
	OpenAIAPIKey    string `toml:"openai_api_key" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `toml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `toml:"gemini_api_key" env:"GEMINI_API_KEY"`
}

// Pipeline holds per-run processing parameters.
type Pipeline struct {
	TargetLanguage       string `toml:"target_language" env:"TARGET_LANGUAGE" validate:"required"`
	VocabularyWords      int    `toml:"vocabulary_words" env:"MAX_VOCABULARY_PER_VIDEO" validate:"gte=1,lte=20"`
	QuizQuestions        int    `toml:"quiz_questions" env:"QUIZ_QUESTIONS_PER_VIDEO" validate:"gte=1"`
	SubtitleFormat       string `toml:"subtitle_format" env:"LINGO_SUBTITLE_FORMAT" validate:"oneof=srt vtt"`
	MergeShortSegments   bool   `toml:"merge_short_segments" env:"LINGO_MERGE_SHORT_SEGMENTS"`
	MaxVideoDuration     int    `toml:"max_video_duration" env:"MAX_VIDEO_DURATION" validate:"gte=0"`
	TranslateConcurrency int    `toml:"translate_concurrency" env:"LINGO_TRANSLATE_CONCURRENCY" validate:"gte=1"`
}

// Worker configures the background worker pool.
type Worker struct {
	Workers      int `toml:"workers" env:"LINGO_WORKERS" validate:"gte=1"`
	QueueSize    int `toml:"queue_size" env:"LINGO_QUEUE_SIZE" validate:"gte=1"`
	PollInterval int `toml:"poll_interval" env:"LINGO_POLL_INTERVAL" validate:"gte=1"` // seconds
}

// Logging configures log output.
type Logging struct {
	Level      string `toml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" env:"LOG_FORMAT" validate:"oneof=console json"`
	File       string `toml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"LOG_MAX_BACKUPS"`
}

// FFmpeg overrides binary discovery.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path" env:"LINGO_FFMPEG_PATH"`
	FFprobePath string `toml:"ffprobe_path" env:"LINGO_FFPROBE_PATH"`
}

// Config is the complete lingo configuration.
type Config struct {
	Storage       Storage       `toml:"storage"`
	Database      Database      `toml:"database"`
	Transcription Transcription `toml:"transcription"`
	Generation    Generation    `toml:"generation"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Worker        Worker        `toml:"worker"`
	Logging       Logging       `toml:"logging"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
}

// Load builds the configuration: defaults, then the TOML file at path (or
// ./lingo.toml when path is empty), then .env, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = "lingo.toml"
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path is a directory: %s", path)
	}
	return path, true, nil
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Generation.Provider = strings.ToLower(strings.TrimSpace(c.Generation.Provider))
	c.Pipeline.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.TargetLanguage))
	c.Pipeline.SubtitleFormat = strings.ToLower(strings.TrimSpace(c.Pipeline.SubtitleFormat))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	root := c.Storage.Root
	if c.Storage.SubtitlesDir == "" {
		c.Storage.SubtitlesDir = filepath.Join(root, "subtitles")
	}
	if c.Storage.AudioDir == "" {
		c.Storage.AudioDir = filepath.Join(root, "processed_audio")
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join(root, "lingo.db")
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel(c.Transcription.Provider)
	}
}

// EnsureDirectories creates the storage directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.Root, c.Storage.SubtitlesDir, c.Storage.AudioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// APIKey returns the configured key for a generation or transcription provider.
func (c *Config) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.Generation.OpenAIAPIKey
	case "anthropic":
		return c.Generation.AnthropicAPIKey
	case "gemini":
		return c.Generation.GeminiAPIKey
	default:
		return ""
	}
}

// PollInterval returns the worker poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollInterval) * time.Second
}

// MaxVideoDuration returns the longest accepted video; zero disables the check.
func (c *Config) MaxVideoDuration() time.Duration {
	return time.Duration(c.Pipeline.MaxVideoDuration) * time.Second
}

// LockPath is the worker single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Storage.Root, "worker.lock")
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
