package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"cadence/internal/convqueue"
	"cadence/internal/transcode"
)

func gather(t *testing.T, c *Collector) map[string][]*dto.Metric {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string][]*dto.Metric, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf.GetMetric()
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestCollectorTracksQueue(t *testing.T) {
	c := NewCollector()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := transcode.Options{Format: transcode.FormatM4A}

	c.HandleQueueEvent(convqueue.Event{Type: convqueue.EventSnapshot, Jobs: []convqueue.Job{
		{ID: "a", Status: convqueue.StatusProcessing, Progress: 40, Options: opts},
		{ID: "b", Status: convqueue.StatusWaiting, Options: opts},
	}})
	c.HandleQueueEvent(convqueue.Event{Type: convqueue.EventSnapshot, Jobs: []convqueue.Job{
		{ID: "a", Status: convqueue.StatusProcessing, Progress: 60, Options: opts},
		{ID: "b", Status: convqueue.StatusWaiting, Options: opts},
	}})

	metrics := gather(t, c)
	if got := metrics["cadence_current_job_progress_percent"][0].GetGauge().GetValue(); got != 60 {
		t.Fatalf("progress = %v", got)
	}
	if got := metrics["cadence_worker_busy"][0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("worker busy = %v", got)
	}
	if got := metrics["cadence_jobs_started_total"][0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("jobs started = %v", got)
	}

	c.HandleQueueEvent(convqueue.Event{Type: convqueue.EventJobFinished, Job: convqueue.Job{
		ID: "a", Status: convqueue.StatusCompleted, Options: opts,
		StartedAt: start, FinishedAt: start.Add(12 * time.Second),
	}})
	c.HandleQueueEvent(convqueue.Event{Type: convqueue.EventSnapshot, Jobs: []convqueue.Job{
		{ID: "a", Status: convqueue.StatusCompleted, Progress: 100, Options: opts},
		{ID: "b", Status: convqueue.StatusWaiting, Options: opts},
	}})

	metrics = gather(t, c)
	for _, m := range metrics["cadence_queue_jobs"] {
		want := 0.0
		switch labelValue(m, "status") {
		case "completed", "waiting":
			want = 1
		}
		if got := m.GetGauge().GetValue(); got != want {
			t.Fatalf("queue_jobs{status=%q} = %v, want %v", labelValue(m, "status"), got, want)
		}
	}
	finished := metrics["cadence_jobs_finished_total"]
	if len(finished) != 1 || labelValue(finished[0], "status") != "completed" || labelValue(finished[0], "format") != "m4a" {
		t.Fatalf("unexpected finished series %v", finished)
	}
	hist := metrics["cadence_job_duration_seconds"][0].GetHistogram()
	if hist.GetSampleCount() != 1 || hist.GetSampleSum() != 12 {
		t.Fatalf("histogram count=%d sum=%v", hist.GetSampleCount(), hist.GetSampleSum())
	}
	if got := metrics["cadence_worker_busy"][0].GetGauge().GetValue(); got != 0 {
		t.Fatalf("worker busy after finish = %v", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollector()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "cadence_queue_jobs") {
		t.Fatalf("exposition missing cadence metrics:\n%s", body)
	}
}
