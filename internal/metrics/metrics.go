package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cadence/internal/convqueue"
)

var durationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200}

// Collector exports queue state as Prometheus metrics. It is a queue
// listener and owns its own registry.
type Collector struct {
	registry *prometheus.Registry

	queueJobs   *prometheus.GaugeVec
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobsStarted prometheus.Counter
	progress    prometheus.Gauge
	workerBusy  prometheus.Gauge

	mu        sync.Mutex
	currentID string
}

// NewCollector registers the cadence metrics plus Go runtime and process
// collectors on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		queueJobs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cadence_queue_jobs",
				Help: "Number of jobs in each queue status",
			},
			[]string{"status"},
		),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadence_jobs_finished_total",
				Help: "Jobs that reached a terminal status",
			},
			[]string{"status", "format"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadence_job_duration_seconds",
				Help:    "Wall time from job start to finish",
				Buckets: durationBuckets,
			},
			[]string{"format"},
		),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_jobs_started_total",
			Help: "Jobs moved from waiting to processing",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cadence_current_job_progress_percent",
			Help: "Progress of the job being converted (0 when idle)",
		}),
		workerBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cadence_worker_busy",
			Help: "1 while a conversion is running, 0 otherwise",
		}),
	}
	c.registry.MustRegister(
		c.queueJobs,
		c.jobsTotal,
		c.jobDuration,
		c.jobsStarted,
		c.progress,
		c.workerBusy,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, status := range []convqueue.Status{convqueue.StatusWaiting, convqueue.StatusProcessing, convqueue.StatusCompleted, convqueue.StatusError} {
		c.queueJobs.WithLabelValues(string(status)).Set(0)
	}
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// HandleQueueEvent implements convqueue.Listener.
func (c *Collector) HandleQueueEvent(event convqueue.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case convqueue.EventJobFinished:
		job := event.Job
		format := string(job.Options.Format)
		c.jobsTotal.WithLabelValues(string(job.Status), format).Inc()
		if !job.StartedAt.IsZero() && !job.FinishedAt.IsZero() {
			c.jobDuration.WithLabelValues(format).Observe(job.FinishedAt.Sub(job.StartedAt).Seconds())
		}
	case convqueue.EventSnapshot:
		counts := map[convqueue.Status]int{}
		var current *convqueue.Job
		for i := range event.Jobs {
			job := &event.Jobs[i]
			counts[job.Status]++
			if job.Status == convqueue.StatusProcessing {
				current = job
			}
		}
		for _, status := range []convqueue.Status{convqueue.StatusWaiting, convqueue.StatusProcessing, convqueue.StatusCompleted, convqueue.StatusError} {
			c.queueJobs.WithLabelValues(string(status)).Set(float64(counts[status]))
		}
		if current == nil {
			c.currentID = ""
			c.progress.Set(0)
			c.workerBusy.Set(0)
			return
		}
		if current.ID != c.currentID {
			c.currentID = current.ID
			c.jobsStarted.Inc()
		}
		c.workerBusy.Set(1)
		c.progress.Set(current.Progress)
	}
}

var _ convqueue.Listener = (*Collector)(nil)
