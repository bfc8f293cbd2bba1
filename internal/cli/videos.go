package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/pipeline"
	"github.com/mgpai22/lingo/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add [video_file]",
	Short: "Register a video for processing",
	Long: `Register a video file as pending. A running worker picks it up on its
next poll; --process runs the pipeline immediately instead.

Examples:
  lingo add lesson.mp4 --title "Ordering coffee" --user 3
  lingo add lesson.mp4 --process`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var statusCmd = &cobra.Command{
	Use:   "status [video_id]",
	Short: "Show a video's processing status and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List videos",
	Long: `List stored videos, oldest first.

Examples:
  lingo list
  lingo list --status failed
  lingo list --user 3 --output-format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(addCmd, statusCmd, listCmd)

	addCmd.Flags().StringP("title", "t", "", "Video title (defaults to the file name)")
	addCmd.Flags().Int64P("user", "u", 0, "Owning user id")
	addCmd.Flags().Bool("process", false, "Process the video right away")

	listCmd.Flags().StringP("status", "s", "", "Only videos in this status (pending, processing, completed, failed)")
	listCmd.Flags().Int64P("user", "u", 0, "Only videos of this user")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of videos")
}

func parseVideoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := cmd.Context()

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", videoPath)
	}
	if !media.IsVideoFile(videoPath) {
		return fmt.Errorf("unsupported file type: %s (expected a video file)", filepath.Ext(videoPath))
	}
	absPath, err := filepath.Abs(videoPath)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	userID, _ := cmd.Flags().GetInt64("user")
	process, _ := cmd.Flags().GetBool("process")
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	video := &model.Video{UserID: userID, Title: title, FilePath: absPath}
	if err := st.CreateVideo(ctx, video); err != nil {
		return fmt.Errorf("register video: %w", err)
	}
	logger.Infow("Video registered", "video_id", video.ID, "file", absPath)

	if !process {
		fmt.Printf("Video %d registered (pending)\n", video.ID)
		return nil
	}

	env, err := buildEnv(ctx, cfg, st, logger)
	if err != nil {
		return err
	}
	return printResult(pipeline.New(env).Run(ctx, video.ID))
}

type statusView struct {
	Video      *model.Video     `json:"video" yaml:"video"`
	Subtitles  []model.Subtitle `json:"subtitles" yaml:"subtitles"`
	Vocabulary int              `json:"vocabulary" yaml:"vocabulary"`
	Quizzes    int              `json:"quizzes" yaml:"quizzes"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	video, err := st.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	subs, err := st.ListSubtitles(ctx, id)
	if err != nil {
		return err
	}
	vocab, err := st.ListVocabulary(ctx, id)
	if err != nil {
		return err
	}
	quizzes, err := st.ListQuizzes(ctx, id)
	if err != nil {
		return err
	}

	view := statusView{Video: video, Subtitles: subs, Vocabulary: len(vocab), Quizzes: len(quizzes)}
	if ok, err := writeStructured(os.Stdout, outputFormat, view); ok {
		return err
	}

	colorize := shouldColorize(os.Stdout)
	fmt.Println(renderTable(videoHeaders, videoRows([]model.Video{*video}, colorize), nil))
	if video.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", video.ErrorMessage)
	}
	for _, sub := range subs {
		fmt.Printf("Subtitle: %s (%s, %s)\n", sub.FilePath, sub.Format, sub.Language)
	}
	fmt.Printf("Vocabulary: %d  Quizzes: %d\n", len(vocab), len(quizzes))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	statusStr, _ := cmd.Flags().GetString("status")
	userID, _ := cmd.Flags().GetInt64("user")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.ListFilter{UserID: userID, Limit: limit}
	if statusStr != "" {
		filter.Status = model.Status(strings.ToLower(statusStr))
		if !filter.Status.Valid() {
			return fmt.Errorf("unknown status %q", statusStr)
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	videos, err := st.ListVideos(ctx, filter)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(os.Stdout, outputFormat, videos); ok {
		return err
	}
	if len(videos) == 0 {
		fmt.Println("No videos found")
		return nil
	}
	aligns := []columnAlignment{alignRight}
	fmt.Println(renderTable(videoHeaders, videoRows(videos, shouldColorize(os.Stdout)), aligns))
	return nil
}
