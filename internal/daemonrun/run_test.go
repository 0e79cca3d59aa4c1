package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/ipc"
	"cadence/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = ""
	cfg.Conversion.WorkDir = filepath.Join(base, "work")
	cfg.WakeLock.Provider = "none"
	cfg.Logging.Level = "error"
	return &cfg
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("pid file = %q", data)
	}
}

func TestNewQueueRejectsUnknownWakeLockProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.WakeLock.Provider = "caffeinate"
	if _, err := NewQueue(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected unknown provider error")
	}
	if _, err := NewQueue(nil, logging.NewNop()); err == nil {
		t.Fatal("expected nil config error")
	}
}

func TestRunStopsOnIPCRequest(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{}) }()

	var client *ipc.Client
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c, err := ipc.Dial(cfg.SocketPath())
		if err == nil {
			client = c
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if client == nil {
		t.Fatal("daemon socket never came up")
	}
	defer client.Close()

	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-ctx.Done():
		t.Fatal("Run did not exit after stop request")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.StateDir, "cadence.pid")); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
}
