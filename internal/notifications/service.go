package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cadence/internal/config"
)

const userAgent = "cadence/0.1"

// Service is the notification surface used by the queue listener and CLI.
type Service interface {
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, file string, err string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	return n.send(ctx, payload{
		title:   "Cadence - Queue Started",
		message: fmt.Sprintf("Converting %d %s", count, plural(count, "file", "files")),
		tags:    []string{"cadence", "queue", "started"},
	})
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	duration = max(duration.Round(time.Second), 0)
	data := payload{
		title:   "Cadence - Queue Complete",
		message: fmt.Sprintf("Converted %d %s in %s", completed, plural(completed, "file", "files"), duration),
		tags:    []string{"cadence", "queue", "completed"},
	}
	if failed > 0 {
		data.title = "Cadence - Queue Complete (with errors)"
		data.message = fmt.Sprintf("%d converted, %d failed in %s", completed, failed, duration)
		data.tags = append(data.tags, "warning")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, file string, errText string) error {
	message := fmt.Sprintf("Could not convert %s", strings.TrimSpace(file))
	if errText = strings.TrimSpace(errText); errText != "" {
		message += ": " + errText
	}
	return n.send(ctx, payload{
		title:    "Cadence - Conversion Failed",
		message:  message,
		tags:     []string{"cadence", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Cadence - Test",
		message:  "Notification test from cadence",
		tags:     []string{"cadence", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) NotifyQueueStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
