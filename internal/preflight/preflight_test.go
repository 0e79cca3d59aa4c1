package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSupport(t *testing.T) {
	ok := CheckSupport([]deps.Status{{Name: "FFmpeg", Available: true}, {Name: "FFprobe", Optional: true}})
	if !ok.Passed {
		t.Fatalf("optional ffprobe should not fail support: %s", ok.Detail)
	}
	bad := CheckSupport([]deps.Status{{Name: "FFmpeg", Detail: `binary "ffmpeg" not found`}})
	if bad.Passed || !strings.Contains(bad.Detail, "ffmpeg") {
		t.Fatalf("expected ffmpeg failure, got %#v", bad)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Directories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.Conversion.FFmpegBinary = "clearly-not-present-ffmpeg"

	results := RunAll(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected log dir and support to fail, got %#v", failed)
	}
	if failed[0].Name != "Log directory" || failed[1].Name != "Conversion support" {
		t.Fatalf("unexpected failures %#v", failed)
	}
}

func TestNotificationStatus(t *testing.T) {
	cfg := config.Default()
	if got := NotificationStatus(&cfg).Detail; got != "Disabled" {
		t.Fatalf("detail = %q", got)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/cadence"
	cfg.Notifications.Queue = true
	cfg.Notifications.Errors = false
	if got := NotificationStatus(&cfg).Detail; got != "https://ntfy.sh/cadence (queue)" {
		t.Fatalf("detail = %q", got)
	}
}

func TestWakeLockStatus(t *testing.T) {
	orig := systemBusSocket
	t.Cleanup(func() { systemBusSocket = orig })

	cfg := config.Default()
	cfg.WakeLock.Provider = "login1"
	systemBusSocket = filepath.Join(t.TempDir(), "absent")
	if r := WakeLockStatus(&cfg); r.Passed {
		t.Fatalf("expected failure without bus socket, got %#v", r)
	}

	systemBusSocket = filepath.Join(t.TempDir(), "bus")
	if err := os.WriteFile(systemBusSocket, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if r := WakeLockStatus(&cfg); !r.Passed {
		t.Fatalf("expected pass with bus socket, got %#v", r)
	}

	cfg.WakeLock.Provider = "none"
	if r := WakeLockStatus(&cfg); r.Detail != "Disabled" {
		t.Fatalf("detail = %q", r.Detail)
	}
}
