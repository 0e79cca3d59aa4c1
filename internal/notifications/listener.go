package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/logging"
)

// QueueNotifier turns queue events into push notifications. Sends happen on
// a background goroutine in event order so the queue worker never waits on
// the network.
type QueueNotifier struct {
	svc      Service
	runs     bool
	failures bool
	minItems int
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	closed bool
	outbox chan func(context.Context) error
	done   chan struct{}

	inRun     bool
	runStart  time.Time
	runTotal  int
	completed int
	failed    int
}

// NewQueueNotifier starts the sender goroutine; call Close to drain it.
func NewQueueNotifier(svc Service, cfg config.Notifications, logger *slog.Logger) *QueueNotifier {
	n := &QueueNotifier{
		svc:      svc,
		runs:     cfg.Queue,
		failures: cfg.Errors,
		minItems: cfg.QueueMinItems,
		logger:   logging.NewComponentLogger(logger, "notifications"),
		now:      time.Now,
		outbox:   make(chan func(context.Context) error, 64),
		done:     make(chan struct{}),
	}
	go n.loop()
	return n
}

// HandleQueueEvent implements convqueue.Listener.
func (n *QueueNotifier) HandleQueueEvent(event convqueue.Event) {
	switch event.Type {
	case convqueue.EventJobFinished:
		if !n.inRun {
			return
		}
		if event.Job.Status == convqueue.StatusCompleted {
			n.completed++
			return
		}
		n.failed++
		if n.failures {
			name, errText := event.Job.Name, event.Job.Error
			n.enqueue(func(ctx context.Context) error {
				return n.svc.NotifyJobFailed(ctx, name, errText)
			})
		}
	case convqueue.EventSnapshot:
		n.trackRun(event.Jobs)
	}
}

func (n *QueueNotifier) trackRun(jobs []convqueue.Job) {
	pending, processing := 0, false
	for _, job := range jobs {
		switch job.Status {
		case convqueue.StatusWaiting:
			pending++
		case convqueue.StatusProcessing:
			pending++
			processing = true
		}
	}

	if !n.inRun {
		if !processing {
			return
		}
		n.inRun = true
		n.runStart = n.now()
		n.runTotal = pending
		n.completed, n.failed = 0, 0
		if n.runs && n.runTotal >= n.minItems {
			count := n.runTotal
			n.enqueue(func(ctx context.Context) error {
				return n.svc.NotifyQueueStarted(ctx, count)
			})
		}
		return
	}

	n.runTotal = max(n.runTotal, n.completed+n.failed+pending)
	if pending > 0 {
		return
	}
	n.inRun = false
	if n.runs && n.runTotal >= n.minItems {
		completed, failed, elapsed := n.completed, n.failed, n.now().Sub(n.runStart)
		n.enqueue(func(ctx context.Context) error {
			return n.svc.NotifyQueueCompleted(ctx, completed, failed, elapsed)
		})
	}
}

func (n *QueueNotifier) enqueue(send func(context.Context) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.outbox <- send:
	default:
		logging.WarnWithContext(n.logger, "notification dropped", "notification_dropped",
			logging.String(logging.FieldErrorHint, "check that the ntfy server is reachable"),
			logging.String(logging.FieldImpact, "one push notification was not sent"),
		)
	}
}

func (n *QueueNotifier) loop() {
	defer close(n.done)
	for send := range n.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := send(ctx); err != nil {
			logging.WarnWithContext(n.logger, "notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "push notification not delivered"),
			)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued sends.
func (n *QueueNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.outbox)
	}
	n.mu.Unlock()
	<-n.done
}

var _ convqueue.Listener = (*QueueNotifier)(nil)
