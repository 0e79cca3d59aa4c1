package convqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cadence/internal/logging"
	"cadence/internal/output"
	"cadence/internal/services"
	"cadence/internal/textutil"
	"cadence/internal/transcode"
	"cadence/internal/wakelock"
)

// ErrAlreadyRunning is returned by Run when another worker is active.
var ErrAlreadyRunning = errors.New("queue worker already running")

// Queue converts jobs one at a time in submission order.
//
// State lives under mu. Every mutation queues its events under mu and then
// flushes them, so listeners see one total order.
type Queue struct {
	backend   transcode.Backend
	wakelocks *wakelock.Manager
	saver     output.Saver
	logger    *slog.Logger

	mu         sync.Mutex
	jobs       []*Job
	index      map[string]*Job
	processing bool
	wakeLock   *wakelock.Handle
	changed    chan struct{}
	pending    []Event
	flushing   bool

	listenersMu sync.RWMutex
	listeners   map[uint64]Listener
	nextID      uint64

	wake    chan struct{}
	running atomic.Bool
	now     func() time.Time
}

// New constructs an empty queue. wakelocks may be nil when the host has no
// sleep inhibitor.
func New(backend transcode.Backend, wakelocks *wakelock.Manager, saver output.Saver, logger *slog.Logger) *Queue {
	return &Queue{
		backend:   backend,
		wakelocks: wakelocks,
		saver:     saver,
		logger:    logging.NewComponentLogger(logger, "queue"),
		index:     make(map[string]*Job),
		changed:   make(chan struct{}),
		listeners: make(map[uint64]Listener),
		wake:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Subscribe registers l and returns a function removing it.
func (q *Queue) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	q.listenersMu.Lock()
	q.nextID++
	id := q.nextID
	q.listeners[id] = l
	q.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.listenersMu.Lock()
			delete(q.listeners, id)
			q.listenersMu.Unlock()
		})
	}
}

// AddFiles appends one waiting job per source, in order, and returns copies
// of the new jobs. With autoStart the worker is woken immediately.
func (q *Queue) AddFiles(sources []transcode.Source, opts transcode.Options, autoStart bool) ([]Job, error) {
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrValidation, "queue", "add files", "no files given", nil)
	}
	for i, src := range sources {
		if src == nil {
			return nil, services.Wrap(services.ErrValidation, "queue", "add files", fmt.Sprintf("file %d is nil", i), nil)
		}
	}

	q.mu.Lock()
	created := make([]Job, 0, len(sources))
	now := q.now()
	for _, src := range sources {
		job := &Job{
			ID:        uuid.NewString(),
			Name:      src.Name(),
			Source:    src,
			Options:   opts,
			Status:    StatusWaiting,
			CreatedAt: now,
		}
		q.jobs = append(q.jobs, job)
		q.index[job.ID] = job
		created = append(created, *job)
	}
	q.emitLocked(Event{Type: EventSnapshot, Jobs: q.snapshotLocked()})
	q.signalChangedLocked()
	q.mu.Unlock()
	q.flush()

	q.logger.Info("files queued",
		logging.Int("count", len(created)),
		logging.String("format", string(opts.Format)),
		logging.String("bitrate", opts.EffectiveBitrate()),
		logging.Bool("auto_start", autoStart),
		logging.String(logging.FieldEventType, "files_queued"),
	)

	if autoStart {
		q.ProcessNext()
	}
	return created, nil
}

// ProcessNext asks the worker to drain waiting jobs. It never blocks. When
// nothing is waiting or processing, it only releases a held wake lock.
func (q *Queue) ProcessNext() {
	q.mu.Lock()
	idle := !q.processing && !q.hasWaitingLocked()
	var handle *wakelock.Handle
	if idle {
		handle = q.wakeLock
		q.wakeLock = nil
	}
	q.mu.Unlock()

	if idle {
		if handle != nil {
			q.wakelocks.Release(handle)
		}
		return
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run is the worker loop. It blocks until ctx is cancelled, draining the
// queue each time ProcessNext is called.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)

	q.logger.Debug("queue worker started", logging.String(logging.FieldEventType, "worker_started"))
	for {
		select {
		case <-ctx.Done():
			q.releaseWakeLock()
			q.logger.Debug("queue worker stopped", logging.String(logging.FieldEventType, "worker_stopped"))
			return nil
		case <-q.wake:
			q.drain(ctx)
		}
	}
}

// Running reports whether a worker loop is active.
func (q *Queue) Running() bool {
	return q.running.Load()
}

// Queue returns a snapshot of all jobs in submission order.
func (q *Queue) Queue() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Job returns a copy of the job with id.
func (q *Queue) Job(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.index[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Stats counts jobs per status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	var stats Stats
	for _, job := range q.jobs {
		switch job.Status {
		case StatusWaiting:
			stats.Waiting++
		case StatusProcessing:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusError:
			stats.Failed++
		}
	}
	return stats
}

// Wait blocks until no job is waiting or processing and the events of the
// last transition have been delivered. Listeners must not call it.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := !q.processing && !q.hasWaitingLocked() && !q.flushing && len(q.pending) == 0
		changed := q.changed
		q.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for ctx.Err() == nil {
		job, ok := q.startNext()
		if !ok {
			break
		}
		q.ensureWakeLock(ctx)
		q.runJob(ctx, job)
	}
	q.releaseWakeLock()
}

// startNext moves the earliest waiting job to processing.
func (q *Queue) startNext() (Job, bool) {
	q.mu.Lock()
	if q.processing {
		q.mu.Unlock()
		return Job{}, false
	}
	var next *Job
	for _, job := range q.jobs {
		if job.Status == StatusWaiting {
			next = job
			break
		}
	}
	if next == nil {
		q.mu.Unlock()
		return Job{}, false
	}
	q.processing = true
	next.Status = StatusProcessing
	next.StartedAt = q.now()
	started := *next
	q.emitLocked(Event{Type: EventSnapshot, Jobs: q.snapshotLocked()})
	q.signalChangedLocked()
	q.mu.Unlock()

	q.flush()
	return started, true
}

func (q *Queue) runJob(ctx context.Context, job Job) {
	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, q.logger)
	logger.Info("job started",
		logging.String("file", job.Name),
		logging.String("format", string(job.Options.Format)),
		logging.String(logging.FieldEventType, "job_started"),
	)

	sampler := logging.NewProgressSampler(10)
	onProgress := func(percent float64) {
		if updated, ok := q.updateProgress(job.ID, percent); ok && sampler.ShouldLog(updated) {
			logger.Debug("job progress", logging.Float64(logging.FieldProgressPercent, updated))
		}
	}

	outputPath, err := q.convert(jobCtx, job, onProgress)
	finished := q.finish(job.ID, outputPath, err)

	if err != nil {
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String("file", job.Name),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, failureHint(err)),
		)
		return
	}
	logger.Info("job completed",
		logging.String("file", job.Name),
		logging.String("output", finished.OutputPath),
		logging.Duration("elapsed", finished.Elapsed()),
		logging.String(logging.FieldEventType, "job_completed"),
	)
}

// convert runs the backend and hands the result to the saver. Panics are
// turned into errors so one job cannot stop the worker.
func (q *Queue) convert(ctx context.Context, job Job, onProgress func(float64)) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
			q.logger.Debug("backend panic stack", logging.String("stack", string(debug.Stack())))
		}
	}()

	if q.backend == nil {
		return "", &transcode.BackendInitError{Err: services.Wrap(services.ErrConfiguration, "queue", "initialize", "no backend configured", nil)}
	}
	ctx = services.WithStage(ctx, "transcode")
	if err := q.backend.Initialize(ctx); err != nil {
		var initErr *transcode.BackendInitError
		if !errors.As(err, &initErr) {
			err = &transcode.BackendInitError{Err: err}
		}
		return "", err
	}
	result, err := q.backend.Convert(ctx, job.Source, job.Options, onProgress)
	if err != nil {
		var convErr *transcode.ConversionError
		if !errors.As(err, &convErr) {
			err = &transcode.ConversionError{Source: job.Name, Err: err}
		}
		return "", err
	}
	ext := result.Extension
	if ext == "" {
		ext = job.Options.Format.Extension()
	}
	if q.saver == nil {
		return "", services.Wrap(services.ErrConfiguration, "queue", "save", "no output destination configured", nil)
	}
	path, err = q.saver.Save(services.WithStage(ctx, "save"), result.Data, textutil.OutputName(job.Name, ext))
	if err != nil {
		return "", fmt.Errorf("save output: %w", err)
	}
	return path, nil
}

// updateProgress records percent for a processing job. Values are clamped to
// [0,100] and never move backwards; it reports the stored value and whether
// it changed.
func (q *Queue) updateProgress(id string, percent float64) (float64, bool) {
	if math.IsNaN(percent) {
		return 0, false
	}
	percent = math.Max(0, math.Min(100, percent))

	q.mu.Lock()
	job, ok := q.index[id]
	if !ok || job.Status != StatusProcessing || percent <= job.Progress {
		q.mu.Unlock()
		return 0, false
	}
	job.Progress = percent
	q.emitLocked(Event{Type: EventSnapshot, Jobs: q.snapshotLocked()})
	q.signalChangedLocked()
	q.mu.Unlock()

	q.flush()
	return percent, true
}

func (q *Queue) finish(id, outputPath string, err error) Job {
	q.mu.Lock()
	job := q.index[id]
	job.FinishedAt = q.now()
	if err != nil {
		job.Status = StatusError
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
		job.Progress = 100
		job.OutputPath = outputPath
	}
	q.processing = false
	finished := *job
	q.emitLocked(
		Event{Type: EventJobFinished, Job: finished},
		Event{Type: EventSnapshot, Jobs: q.snapshotLocked()},
	)
	q.signalChangedLocked()
	q.mu.Unlock()

	q.flush()
	return finished
}

func (q *Queue) ensureWakeLock(ctx context.Context) {
	q.mu.Lock()
	held := q.wakeLock != nil
	q.mu.Unlock()
	if held || q.wakelocks == nil {
		return
	}
	handle := q.wakelocks.Acquire(ctx)
	if handle == nil {
		return
	}
	q.mu.Lock()
	q.wakeLock = handle
	q.mu.Unlock()
}

func (q *Queue) releaseWakeLock() {
	q.mu.Lock()
	handle := q.wakeLock
	q.wakeLock = nil
	q.mu.Unlock()
	if handle != nil {
		q.wakelocks.Release(handle)
	}
}

func (q *Queue) hasWaitingLocked() bool {
	for _, job := range q.jobs {
		if job.Status == StatusWaiting {
			return true
		}
	}
	return false
}

func (q *Queue) snapshotLocked() []Job {
	out := make([]Job, len(q.jobs))
	for i, job := range q.jobs {
		out[i] = *job
	}
	return out
}

func (q *Queue) signalChangedLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// emitLocked queues events behind those already pending. mu must be held.
func (q *Queue) emitLocked(events ...Event) {
	q.pending = append(q.pending, events...)
}

// flush delivers pending events in order. One goroutine flushes at a time;
// events queued while it runs, including by its listeners, go out with that
// flush and the other callers return at once.
func (q *Queue) flush() {
	q.mu.Lock()
	if q.flushing {
		q.mu.Unlock()
		return
	}
	q.flushing = true
	for len(q.pending) > 0 {
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()
		for _, event := range batch {
			q.deliver(event)
		}
		q.mu.Lock()
	}
	q.flushing = false
	q.signalChangedLocked()
	q.mu.Unlock()
}

// deliver is only called from flush.
func (q *Queue) deliver(event Event) {
	q.listenersMu.RLock()
	ids := make([]uint64, 0, len(q.listeners))
	for id := range q.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, q.listeners[id])
	}
	q.listenersMu.RUnlock()

	for _, l := range listeners {
		q.safeDeliver(l, event)
	}
}

func (q *Queue) safeDeliver(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(q.logger, "queue listener panicked", "listener_panic",
				logging.String("event", string(event.Type)),
				logging.Any("panic", r),
				logging.String(logging.FieldImpact, "listener missed one event"),
			)
		}
	}()
	l.HandleQueueEvent(event)
}

func failureHint(err error) string {
	var initErr *transcode.BackendInitError
	var convErr *transcode.ConversionError
	switch {
	case errors.As(err, &initErr):
		return "run `cadence status` to check the ffmpeg installation"
	case errors.As(err, &convErr):
		return "check that the input is a readable audio file"
	case errors.Is(err, context.Canceled):
		return "the queue was stopped while the job was running"
	default:
		return "check paths.output_dir permissions and free space"
	}
}
