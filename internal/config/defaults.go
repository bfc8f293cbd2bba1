package config

const (
	defaultStorageRoot     = "storage"
	defaultTargetLanguage  = "vi"
	defaultVocabularyWords = 15
	defaultQuizQuestions   = 10
	defaultMaxDuration     = 7200
)

// Default returns the configuration used before files and environment are applied.
func Default() Config {
	return Config{
		Storage: Storage{
			Root: defaultStorageRoot,
		},
		Database: Database{
			Driver:   "sqlite",
			MaxConns: 10,
		},
		Transcription: Transcription{
			Provider:      "openai",
			WhisperBinary: "whisper",
			WhisperModel:  "medium",
		},
		Generation: Generation{
			Provider: "openai",
		},
		Pipeline: Pipeline{
			TargetLanguage:       defaultTargetLanguage,
			VocabularyWords:      defaultVocabularyWords,
			QuizQuestions:        defaultQuizQuestions,
			SubtitleFormat:       "srt",
			MaxVideoDuration:     defaultMaxDuration,
			TranslateConcurrency: 1,
		},
		Worker: Worker{
			Workers:      2,
			QueueSize:    16,
			PollInterval: 5,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultTranscriptionModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "whisper":
		return ""
	default:
		return "whisper-1"
	}
}
