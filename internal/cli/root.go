package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/config"
	"github.com/mgpai22/lingo/internal/logging"
)

var (
	verbose      bool
	configPath   string
	outputFormat string

	cfg    *config.Config
	logger *logging.Logger
)

// commands carrying this annotation run without loading lingo.toml
const annotationNoConfig = "no-config"

var rootCmd = &cobra.Command{
	Use:   "lingo",
	Short: "Turn videos into bilingual subtitles, vocabulary and quizzes",
	Long: `Lingo processes uploaded videos for language learners.

Each video is transcribed, translated, rendered as a bilingual subtitle
track and mined for vocabulary and comprehension questions. Results are
stored in SQLite or PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		if cmd.Annotations[annotationNoConfig] == "true" {
			return nil
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		l, err := logging.New(logging.Options{
			Level:      level,
			Format:     cfg.Logging.Format,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l

		switch outputFormat {
		case formatTable, formatJSON, formatYAML:
		default:
			return fmt.Errorf("unsupported output format %q: use table, json or yaml", outputFormat)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ./lingo.toml)")
	rootCmd.PersistentFlags().
		StringVar(&outputFormat, "output-format", formatTable, "Output format (table, json, yaml)")
}
