package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/deps"
	"cadence/internal/device"
	"cadence/internal/history"
	"cadence/internal/logging"
	"cadence/internal/metrics"
	"cadence/internal/notifications"
	"cadence/internal/preflight"
	"cadence/internal/services"
	"cadence/internal/transcode"
)

// Daemon hosts a conversion queue for the lifetime of the process and
// enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	queue   *convqueue.Queue
	history *history.Store
	metrics *metrics.Collector
	notify  notifications.Service
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	unsubscribe []func()
	notifier    *notifications.QueueNotifier

	running   atomic.Bool
	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt atomic.Int64

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	HistoryPath  string
	Stats        convqueue.Stats
	Current      *convqueue.Job
	Dependencies []deps.Status
	Device       device.Info
}

// Option customises a Daemon.
type Option func(*Daemon)

// WithHistory records finished jobs in store. The daemon closes it on Close.
func WithHistory(store *history.Store) Option {
	return func(d *Daemon) { d.history = store }
}

// WithMetrics exports queue activity through collector on the HTTP API.
func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Daemon) { d.metrics = collector }
}

// WithNotifier sends push notifications for queue runs and failures.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) { d.notify = svc }
}

// New wires the queue listeners and the HTTP API. The worker does not run
// until Start.
func New(cfg *config.Config, q *convqueue.Queue, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || q == nil {
		return nil, errors.New("daemon requires config and queue")
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		queue:    q,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	if d.history != nil {
		d.unsubscribe = append(d.unsubscribe, q.Subscribe(history.NewRecorder(d.history, logger)))
	}
	if d.metrics != nil {
		d.unsubscribe = append(d.unsubscribe, q.Subscribe(d.metrics))
	}
	if notifications.Enabled(d.notify) {
		d.notifier = notifications.NewQueueNotifier(d.notify, cfg.Notifications, logger)
		d.unsubscribe = append(d.unsubscribe, q.Subscribe(d.notifier))
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		d.detach()
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, starts the queue worker and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cadence daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.queue.Run(runCtx); err != nil {
			logging.ErrorWithContext(d.logger, "queue worker exited", "worker_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the daemon"))
		}
	}()

	d.cancel = cancel
	d.done = done
	d.startedAt.Store(time.Now().UnixNano())
	d.running.Store(true)
	d.logger.Info("cadence daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath))

	// Anything queued before Start is picked up now.
	d.queue.ProcessNext()
	return nil
}

// Stop stops the worker after its current job and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	<-d.done
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report an existing instance"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"))
	}
	d.cancel = nil
	d.done = nil
	d.running.Store(false)
	d.logger.Info("cadence daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases listeners and the history store.
func (d *Daemon) Close() error {
	d.Stop()
	d.detach()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

func (d *Daemon) detach() {
	for _, unsubscribe := range d.unsubscribe {
		unsubscribe()
	}
	d.unsubscribe = nil
	if d.notifier != nil {
		d.notifier.Close()
		d.notifier = nil
	}
}

// RequestShutdown asks the hosting process to exit. It is idempotent.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdown) })
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// AddFiles queues local files for conversion. Empty format and bitrate fall
// back to the configured defaults.
func (d *Daemon) AddFiles(paths []string, format, bitrate string, autoStart bool) ([]convqueue.Job, error) {
	opts, err := JobOptions(d.cfg, format, bitrate)
	if err != nil {
		return nil, err
	}
	sources, err := ResolveSources(paths)
	if err != nil {
		return nil, err
	}

	jobs, err := d.queue.AddFiles(sources, opts, autoStart)
	if err != nil {
		return nil, err
	}
	d.logger.Info("files queued",
		logging.String(logging.FieldEventType, "files_queued"),
		logging.Int("count", len(jobs)),
		logging.String("format", string(opts.Format)),
		logging.String("bitrate", opts.EffectiveBitrate()),
		logging.Bool("auto_start", autoStart))
	return jobs, nil
}

// JobOptions resolves per-job conversion options, falling back to the
// configured default format and per-format bitrate.
func JobOptions(cfg *config.Config, format, bitrate string) (transcode.Options, error) {
	if strings.TrimSpace(format) == "" {
		format = cfg.Conversion.DefaultFormat
	}
	parsed, err := transcode.ParseFormat(format)
	if err != nil {
		return transcode.Options{}, services.Wrap(services.ErrValidation, "daemon", "add files", "invalid format", err)
	}
	if strings.TrimSpace(bitrate) == "" {
		bitrate = cfg.BitrateFor(string(parsed))
	}
	return transcode.Options{Format: parsed, Bitrate: strings.TrimSpace(bitrate)}, nil
}

// ResolveSources turns paths into file sources, rejecting empty batches,
// missing files and directories.
func ResolveSources(paths []string) ([]transcode.Source, error) {
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrValidation, "daemon", "add files", "no files given", nil)
	}
	sources := make([]transcode.Source, 0, len(paths))
	for _, raw := range paths {
		src, err := resolveSource(raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func resolveSource(raw string) (transcode.Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, services.Wrap(services.ErrValidation, "daemon", "add files", "source path is required", nil)
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "daemon", "add files", "stat source file", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "daemon", "add files",
			fmt.Sprintf("source path %q is a directory", trimmed), nil)
	}
	return transcode.NewFileSource(trimmed), nil
}

// ProcessNext wakes the queue worker.
func (d *Daemon) ProcessNext() {
	d.queue.ProcessNext()
}

// Queue returns the queue snapshot in submission order.
func (d *Daemon) Queue() []convqueue.Job {
	return d.queue.Queue()
}

// Stats counts queued jobs per status.
func (d *Daemon) Stats() convqueue.Stats {
	return d.queue.Stats()
}

// Job returns a single job by id.
func (d *Daemon) Job(id string) (convqueue.Job, bool) {
	return d.queue.Job(id)
}

// History lists recently finished jobs, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if d.history == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "list history", "history is disabled", nil)
	}
	return d.history.List(ctx, limit)
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if !notifications.Enabled(d.notify) {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notify.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Stats:        d.queue.Stats(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Device:       device.Probe(),
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	if started := d.startedAt.Load(); started != 0 && status.Running {
		status.StartedAt = time.Unix(0, started)
	}
	for _, job := range d.queue.Queue() {
		if job.Status == convqueue.StatusProcessing {
			current := job
			status.Current = &current
			break
		}
	}
	return status
}

// APIAddress is the bound HTTP API address, empty when disabled or stopped.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}
