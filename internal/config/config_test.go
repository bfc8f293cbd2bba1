package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.TargetLanguage != "vi" {
		t.Errorf("target language = %q, want vi", cfg.Pipeline.TargetLanguage)
	}
	if cfg.Pipeline.VocabularyWords != 15 {
		t.Errorf("vocabulary words = %d, want 15", cfg.Pipeline.VocabularyWords)
	}
	if cfg.Pipeline.QuizQuestions != 10 {
		t.Errorf("quiz questions = %d, want 10", cfg.Pipeline.QuizQuestions)
	}
	if want := filepath.Join("storage", "subtitles"); cfg.Storage.SubtitlesDir != want {
		t.Errorf("subtitles dir = %q, want %q", cfg.Storage.SubtitlesDir, want)
	}
	if want := filepath.Join("storage", "processed_audio"); cfg.Storage.AudioDir != want {
		t.Errorf("audio dir = %q, want %q", cfg.Storage.AudioDir, want)
	}
	if want := filepath.Join("storage", "lingo.db"); cfg.Database.Path != want {
		t.Errorf("db path = %q, want %q", cfg.Database.Path, want)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Errorf("transcription model = %q, want whisper-1", cfg.Transcription.Model)
	}
	if cfg.MaxVideoDuration() != 2*time.Hour {
		t.Errorf("max duration = %v, want 2h", cfg.MaxVideoDuration())
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.toml")
	content := `
[storage]
root = "/data/lingo"

[pipeline]
target_language = "EN"
quiz_questions = 5
subtitle_format = "vtt"

[generation]
provider = "anthropic"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUIZ_QUESTIONS_PER_VIDEO", "7")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.TargetLanguage != "en" {
		t.Errorf("target language = %q, want en", cfg.Pipeline.TargetLanguage)
	}
	if cfg.Pipeline.QuizQuestions != 7 {
		t.Errorf("quiz questions = %d, want env override 7", cfg.Pipeline.QuizQuestions)
	}
	if cfg.Pipeline.SubtitleFormat != "vtt" {
		t.Errorf("subtitle format = %q, want vtt", cfg.Pipeline.SubtitleFormat)
	}
	if cfg.Storage.SubtitlesDir != "/data/lingo/subtitles" {
		t.Errorf("subtitles dir = %q", cfg.Storage.SubtitlesDir)
	}
	if cfg.APIKey(cfg.Generation.Provider) != "sk-test" {
		t.Errorf("anthropic key not picked up from environment")
	}
	if cfg.LockPath() != "/data/lingo/worker.lock" {
		t.Errorf("lock path = %q", cfg.LockPath())
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LINGO_WORKERS=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LINGO_WORKERS") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Worker.Workers != 4 {
		t.Errorf("workers = %d, want 4 from .env", cfg.Worker.Workers)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("nope.toml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "Driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DSN"},
		{"vocabulary ceiling", func(c *Config) { c.Pipeline.VocabularyWords = 40 }, "VocabularyWords"},
		{"bad format", func(c *Config) { c.Pipeline.SubtitleFormat = "ass" }, "SubtitleFormat"},
		{"zero workers", func(c *Config) { c.Worker.Workers = 0 }, "Workers"},
		{"bad provider", func(c *Config) { c.Transcription.Provider = "azure" }, "Provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.normalize()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRequireProviderKeys(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	if err := cfg.RequireProviderKeys(); err == nil {
		t.Error("expected error without keys")
	}
	cfg.Generation.OpenAIAPIKey = "k"
	if err := cfg.RequireProviderKeys(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Generation.Provider = "gemini"
	cfg.Transcription.Provider = "whisper"
	if err := cfg.RequireProviderKeys(); err == nil {
		t.Error("expected error for missing gemini key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "lingo.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Error("expected error when sample already exists")
	}
	t.Chdir(filepath.Dir(path))
	if _, err := Load(path); err != nil {
		t.Errorf("sample config does not load: %v", err)
	}
}
