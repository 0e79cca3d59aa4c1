package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/logging"
	"cadence/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

type ntfyRecorder struct {
	mu       sync.Mutex
	requests []captured
}

func (r *ntfyRecorder) handler(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, captured{
		title:    req.Header.Get("Title"),
		tags:     req.Header.Get("Tags"),
		priority: req.Header.Get("Priority"),
		body:     string(body),
	})
	r.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (r *ntfyRecorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.requests...)
}

func newService(t *testing.T) (notifications.Service, *ntfyRecorder) {
	t.Helper()
	rec := &ntfyRecorder{}
	server := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(server.Close)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/cadence"
	return notifications.NewService(&cfg), rec
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service")
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop returned %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	if err := svc.NotifyQueueStarted(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyQueueCompleted(ctx, 3, 1, 90*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyJobFailed(ctx, "song.flac", "unsupported codec"); err != nil {
		t.Fatal(err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatal(err)
	}

	got := rec.all()
	want := []captured{
		{title: "Cadence - Queue Started", tags: "cadence,queue,started", body: "Converting 1 file"},
		{title: "Cadence - Queue Complete (with errors)", tags: "cadence,queue,completed,warning", body: "3 converted, 1 failed in 1m30s"},
		{title: "Cadence - Conversion Failed", tags: "cadence,error", priority: "high", body: "Could not convert song.flac: unsupported codec"},
		{title: "Cadence - Test", tags: "cadence,test", priority: "low", body: "Notification test from cadence"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d requests, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer server.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func snapshot(statuses ...convqueue.Status) convqueue.Event {
	jobs := make([]convqueue.Job, len(statuses))
	for i, s := range statuses {
		jobs[i] = convqueue.Job{ID: string(rune('a' + i)), Name: string(rune('a'+i)) + ".wav", Status: s}
	}
	return convqueue.Event{Type: convqueue.EventSnapshot, Jobs: jobs}
}

func finished(name string, status convqueue.Status) convqueue.Event {
	return convqueue.Event{Type: convqueue.EventJobFinished, Job: convqueue.Job{Name: name, Status: status, Error: "bad input"}}
}

func TestQueueNotifierReportsRun(t *testing.T) {
	svc, rec := newService(t)
	cfg := config.Default().Notifications
	cfg.QueueMinItems = 2
	n := notifications.NewQueueNotifier(svc, cfg, logging.NewNop())

	const (
		w = convqueue.StatusWaiting
		p = convqueue.StatusProcessing
		c = convqueue.StatusCompleted
		e = convqueue.StatusError
	)
	for _, event := range []convqueue.Event{
		snapshot(w, w),
		snapshot(p, w),
		finished("a.wav", c),
		snapshot(c, w),
		snapshot(c, p),
		finished("b.wav", e),
		snapshot(c, e),
	} {
		n.HandleQueueEvent(event)
	}
	n.Close()

	got := rec.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %+v", got)
	}
	if got[0].body != "Converting 2 files" {
		t.Fatalf("start = %+v", got[0])
	}
	if got[1].title != "Cadence - Conversion Failed" || !strings.Contains(got[1].body, "b.wav") {
		t.Fatalf("failure = %+v", got[1])
	}
	if !strings.HasPrefix(got[2].body, "1 converted, 1 failed") {
		t.Fatalf("summary = %+v", got[2])
	}
}

func TestQueueNotifierRespectsMinItems(t *testing.T) {
	svc, rec := newService(t)
	cfg := config.Default().Notifications
	cfg.QueueMinItems = 2
	cfg.Errors = false
	n := notifications.NewQueueNotifier(svc, cfg, nil)

	n.HandleQueueEvent(snapshot(convqueue.StatusWaiting))
	n.HandleQueueEvent(snapshot(convqueue.StatusProcessing))
	n.HandleQueueEvent(finished("a.wav", convqueue.StatusError))
	n.HandleQueueEvent(snapshot(convqueue.StatusError))
	n.Close()
	n.Close()

	if got := rec.all(); len(got) != 0 {
		t.Fatalf("expected no notifications for a single-file run, got %+v", got)
	}
}
