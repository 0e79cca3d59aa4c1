package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"cadence/internal/api"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, "\x1b[32m") {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	deps := []api.DependencyStatus{
		{Name: "FFmpeg", Command: "ffmpeg", Available: true, Path: "/usr/bin/ffmpeg"},
		{Name: "FFprobe", Command: "ffprobe", Optional: true, Detail: "binary \"ffprobe\" not found"},
	}
	summary := api.DependencySummary{Severity: "warn", Detail: "1/2 available"}
	lines := dependencyLines(deps, summary, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[WARN] 1/2 available") {
		t.Fatalf("expected summary first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] Ready (/usr/bin/ffmpeg)") {
		t.Fatalf("expected resolved path, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") {
		t.Fatalf("optional dependency should warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "FFprobe") {
		t.Fatalf("expected missing list, got %q", lines[3])
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	tests := map[string]statusKind{
		"ok":      statusOK,
		" WARN ":  statusWarn,
		"error":   statusError,
		"info":    statusInfo,
		"unknown": statusInfo,
	}
	for input, want := range tests {
		if got := statusKindFromSeverity(input); got != want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFindJobByPrefix(t *testing.T) {
	jobs := []api.Job{{ID: "abcd1234-0000"}, {ID: "abcd9999-0000"}, {ID: "ffff0000-0000"}}
	if _, ok := findJob(jobs, "abcd"); ok {
		t.Fatal("ambiguous prefix must not match")
	}
	if job, ok := findJob(jobs, "ffff"); !ok || job.ID != "ffff0000-0000" {
		t.Fatalf("expected unique prefix match, got %v %v", job, ok)
	}
	if _, ok := findJob(jobs, "ff"); ok {
		t.Fatal("short prefixes must not match")
	}
}
