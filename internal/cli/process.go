package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/pipeline"
	"github.com/mgpai22/lingo/internal/worker"
)

var processCmd = &cobra.Command{
	Use:   "process [video_id...]",
	Short: "Run the processing pipeline for videos now",
	Long: `Run the full pipeline (inspect, extract audio, transcribe, translate,
subtitles, vocabulary, quiz) for each video id in the foreground.

Examples:
  lingo process 12
  lingo process 12 13 14 --output-format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process pending videos in the background",
	Long: `Start the worker pool and poll the store for pending videos until
interrupted. Only one worker may run per storage root.

On start, videos left in processing by a previous worker are marked failed
with the message "interrupted"; re-run them with "lingo process".`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(processCmd, workerCmd)

	workerCmd.Flags().Int("workers", 0, "Number of concurrent pipeline runs (overrides config)")
	workerCmd.Flags().Int("queue-size", 0, "Maximum queued videos (overrides config)")
}

func printResult(res pipeline.Result) error {
	if ok, err := writeStructured(os.Stdout, outputFormat, res); ok {
		if err != nil {
			return err
		}
	} else {
		state := "OK"
		if !res.Success {
			state = "FAILED"
		}
		fmt.Printf("Video %d: [%s] %s\n", res.VideoID, state, res.Message)
		for _, w := range res.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	if !res.Success {
		return fmt.Errorf("video %d: %s", res.VideoID, res.Message)
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseVideoID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	env, err := buildEnv(ctx, cfg, st, logger)
	if err != nil {
		return err
	}
	orchestrator := pipeline.New(env)

	var failed []string
	for _, id := range ids {
		if err := printResult(orchestrator.Run(ctx, id)); err != nil {
			failed = append(failed, fmt.Sprintf("%d", id))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("processing failed for video(s) %s", strings.Join(failed, ", "))
	}
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	queueSize, _ := cmd.Flags().GetInt("queue-size")
	if workers <= 0 {
		workers = cfg.Worker.Workers
	}
	if queueSize <= 0 {
		queueSize = cfg.Worker.QueueSize
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another lingo worker is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warnw("Failed to release worker lock", "error", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(sigCtx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reset, err := st.ResetProcessing(sigCtx, "interrupted")
	if err != nil {
		return fmt.Errorf("reset interrupted videos: %w", err)
	}
	if reset > 0 {
		logger.Warnw("Marked interrupted videos as failed", "count", reset)
	}

	env, err := buildEnv(sigCtx, cfg, st, logger)
	if err != nil {
		return err
	}

	pool := worker.NewPool(workers, queueSize, worker.WithErrorHandler(func(err error) {
		logger.Warnw("Pipeline run failed", "error", err)
	}))
	// runs are not cancelled by the first signal; Shutdown waits for them
	runCtx, cancelRuns := context.WithCancel(context.WithoutCancel(sigCtx))
	defer cancelRuns()
	pool.Start(runCtx)

	dispatcher := pipeline.NewDispatcher(pool, pipeline.New(env), logger.With("component", "dispatcher"))
	poller := pipeline.NewPoller(st, dispatcher, cfg.PollInterval(), queueSize, logger.With("component", "poller"))

	logger.Infow("Worker started",
		"workers", workers,
		"queue_size", queueSize,
		"poll_interval", cfg.PollInterval(),
		"lock", cfg.LockPath(),
	)

	pollDone := make(chan error, 1)
	go func() { pollDone <- poller.Run(sigCtx) }()

	<-sigCtx.Done()
	// a second signal terminates the process
	stop()
	logger.Infow("Shutting down, waiting for running videos", "in_flight", len(dispatcher.InFlight()))

	if err := <-pollDone; err != nil {
		logger.Warnw("Poller stopped with error", "error", err)
	}
	if dropped := pool.Shutdown(); dropped > 0 {
		logger.Infow("Left queued videos pending", "count", dropped)
	}
	logger.Infow("Worker stopped")
	return nil
}
