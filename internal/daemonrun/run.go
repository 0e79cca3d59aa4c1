package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/daemon"
	"cadence/internal/history"
	"cadence/internal/ipc"
	"cadence/internal/logging"
	"cadence/internal/metrics"
	"cadence/internal/notifications"
	"cadence/internal/output"
	"cadence/internal/preflight"
	"cadence/internal/transcode"
	"cadence/internal/wakelock"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the cadence daemon and blocks until a signal or an IPC stop request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := filepath.Join(cfg.Paths.LogDir, "cadence.log")
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "cadence*.log", cfg.Logging.RetentionDays, logPath)
	logPreflight(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "cadence.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	q, err := buildQueue(cfg, logger)
	if err != nil {
		return err
	}

	daemonOpts := []daemon.Option{
		daemon.WithMetrics(metrics.NewCollector()),
		daemon.WithNotifier(notifications.NewService(cfg)),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.ErrorWithContext(logger, "open history database", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"))
			return err
		}
		daemonOpts = append(daemonOpts, daemon.WithHistory(store))
	}

	d, err := daemon.New(cfg, q, logger, daemonOpts...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("cadence daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// buildQueue assembles the ffmpeg backend, wake-lock manager and output saver
// from cfg into a queue.
func buildQueue(cfg *config.Config, logger *slog.Logger) (*convqueue.Queue, error) {
	locks, err := wakelock.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wake lock: %w", err)
	}
	backend := transcode.NewFFmpegFromConfig(cfg, logger)
	return convqueue.New(backend, locks, output.NewFromConfig(cfg, logger), logger), nil
}

// NewQueue builds a standalone queue for in-process conversions.
func NewQueue(cfg *config.Config, logger *slog.Logger) (*convqueue.Queue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return buildQueue(cfg, logger)
}

func logPreflight(logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(cfg)
	for _, result := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "conversions may fail until resolved"),
			logging.String(logging.FieldErrorHint, "run cadence status for details"))
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		logger.Debug("dependency snapshot",
			logging.String(logging.FieldEventType, "dependency_snapshot"),
			logging.String("name", dep.Name),
			logging.String("command", dep.Command),
			logging.Bool("available", dep.Available))
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
