package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"cadence/internal/api"
	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/daemon"
	"cadence/internal/daemonrun"
	"cadence/internal/history"
	"cadence/internal/logging"
	"cadence/internal/notifications"
	"cadence/internal/transcode"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var format string
	var bitrate string
	var outputDir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert files in the foreground without the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if dir := strings.TrimSpace(outputDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}

			opts, err := daemon.JobOptions(&cfg, format, bitrate)
			if err != nil {
				return err
			}
			sources, err := daemon.ResolveSources(args)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			logger, err := convertLogger(&cfg, ctx.logLevel())
			if err != nil {
				return err
			}
			q, err := daemonrun.NewQueue(&cfg, logger)
			if err != nil {
				return err
			}
			detach := attachConvertListeners(&cfg, q, logger)
			defer detach()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			progressOut := out
			if jsonOutput {
				progressOut = cmd.ErrOrStderr()
			}
			jobs, err := convertFiles(runCtx, q, sources, opts, progressOut, isTerminal(progressOut))
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.QueueListResponse{Jobs: api.FromJobs(jobs)})
			}
			fmt.Fprintln(out, renderJobTable(api.FromJobs(jobs)))
			fmt.Fprintln(out, conversionSummary(jobs, cfg.Paths.OutputDir))
			return conversionOutcome(jobs)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (m4a, mp3, opus)")
	cmd.Flags().StringVarP(&bitrate, "bitrate", "b", "", "Target bitrate such as 192k")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for converted files")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the final job list as JSON")
	return cmd
}

// convertFiles queues sources on q, runs its worker until every job has
// finished, and returns the final state of the submitted jobs.
func convertFiles(ctx context.Context, q *convqueue.Queue, sources []transcode.Source, opts transcode.Options, progressOut io.Writer, interactive bool) ([]convqueue.Job, error) {
	renderer := newProgressRenderer(progressOut, interactive)
	unsubscribe := q.Subscribe(renderer)
	defer unsubscribe()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	errCh := make(chan error, 1)
	go func() { errCh <- q.Run(workerCtx) }()

	added, err := q.AddFiles(sources, opts, false)
	if err != nil {
		stopWorker()
		<-errCh
		return nil, err
	}
	renderer.track(added)
	q.ProcessNext()

	waitErr := q.Wait(ctx)
	stopWorker()
	if runErr := <-errCh; runErr != nil {
		return nil, runErr
	}
	if waitErr != nil {
		return nil, waitErr
	}

	final := make([]convqueue.Job, 0, len(added))
	for _, job := range added {
		if current, ok := q.Job(job.ID); ok {
			final = append(final, current)
		}
	}
	return final, nil
}

// conversionSummary reports how many files were written and their total size.
func conversionSummary(jobs []convqueue.Job, outputDir string) string {
	var written int
	var size uint64
	for _, job := range jobs {
		if job.Status != convqueue.StatusCompleted {
			continue
		}
		written++
		if info, err := os.Stat(job.OutputPath); err == nil {
			size += uint64(info.Size())
		}
	}
	return fmt.Sprintf("Wrote %d of %d %s (%s) to %s",
		written, len(jobs), english.PluralWord(len(jobs), "file", ""), humanize.Bytes(size), outputDir)
}

func conversionOutcome(jobs []convqueue.Job) error {
	failed := 0
	for _, job := range jobs {
		if job.Status == convqueue.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(jobs))
	}
	return nil
}

// convertLogger writes only to the log file so progress output stays readable.
func convertLogger(cfg *config.Config, level string) (*slog.Logger, error) {
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "cadence-convert.log")
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// attachConvertListeners mirrors the daemon's history and notification
// listeners for foreground runs.
func attachConvertListeners(cfg *config.Config, q *convqueue.Queue, logger *slog.Logger) func() {
	var cleanups []func()
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run is not recorded"))
		} else {
			unsub := q.Subscribe(history.NewRecorder(store, logger))
			cleanups = append(cleanups, unsub, func() { _ = store.Close() })
		}
	}
	if svc := notifications.NewService(cfg); notifications.Enabled(svc) {
		notifier := notifications.NewQueueNotifier(svc, cfg.Notifications, logger)
		unsub := q.Subscribe(notifier)
		cleanups = append(cleanups, unsub, notifier.Close)
	}
	return func() {
		for _, fn := range cleanups {
			fn()
		}
	}
}
