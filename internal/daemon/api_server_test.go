package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/api"
	"cadence/internal/logging"
	"cadence/internal/metrics"
	"cadence/internal/testsupport"
)

func newTestAPI(t *testing.T, token string) (*Daemon, http.Handler) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	q := testsupport.NewQueue(t, cfg, &testsupport.StubBackend{})
	d, err := New(cfg, q, logging.NewNop(), WithMetrics(metrics.NewCollector()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, d.api.handler
}

func TestAPIAddAndListQueue(t *testing.T) {
	_, handler := newTestAPI(t, "")
	file := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "track.flac"), 8)

	body, _ := json.Marshal(api.AddRequest{Paths: []string{file}, Format: "opus", NoStart: true})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added api.AddResponse
	if err := json.Unmarshal(w.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode add response: %v", err)
	}
	if len(added.Jobs) != 1 || added.Jobs[0].Format != "opus" || added.Jobs[0].Status != "waiting" {
		t.Fatalf("unexpected add response %#v", added)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue?status=waiting", nil))
	var list api.QueueListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Name != "track.flac" {
		t.Fatalf("unexpected list %#v", list)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue/"+added.Jobs[0].ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("describe status %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIAddRejectsBadInput(t *testing.T) {
	_, handler := newTestAPI(t, "")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(`{"paths":[]}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(`{"files":["x"]}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(`{"paths":["/definitely/missing.wav"]}`)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing file, got %d", w.Code)
	}
}

func TestAPIStatusHistoryAndMetrics(t *testing.T) {
	_, handler := newTestAPI(t, "")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running || status.PID == 0 || len(status.Dependencies) != 2 {
		t.Fatalf("unexpected status %#v", status)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 with history disabled, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue/process", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "cadence_queue_jobs") {
		t.Fatal("metrics endpoint missing queue gauge")
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	_, handler := newTestAPI(t, "s3cret")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestAPIRequestIDHeader(t *testing.T) {
	_, handler := newTestAPI(t, "")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	req.Header.Set(requestIDHeader, "caller-42")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "caller-42" {
		t.Fatalf("expected caller id to be echoed, got %q", got)
	}
}
