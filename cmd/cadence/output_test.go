package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"cadence/internal/api"
	"cadence/internal/services"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupted", fmt.Errorf("convert: %w", context.Canceled), exitInterrupted},
		{"invalid input", services.Wrap(services.ErrValidation, "cli", "convert", "unknown format", nil), exitUsage},
		{"missing file", services.Wrap(services.ErrNotFound, "cli", "convert", "no such file", nil), exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunReportsUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"transmogrify"}, &stderr); code != exitFailure {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestWriteJSONKeepsFileNamesReadable(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := writeJSON(cmd, api.Job{ID: "1", Name: "Simon & Garfunkel <live>.flac"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Simon & Garfunkel <live>.flac"`) {
		t.Fatalf("output = %s", out.String())
	}
}
