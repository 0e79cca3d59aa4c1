package ffprobe

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45", BitRate: "32000"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestDurationFallsBackToAudioStream(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "audio", Duration: "10.5"},
		{CodecType: "audio", Duration: "12"},
		{CodecType: "video", Duration: "99"},
	}}
	if got := result.DurationSeconds(); got != 12 {
		t.Fatalf("duration = %v, want 12", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "nope"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestDuration(t *testing.T) {
	setHelperCommand(t, "success")
	got, err := Duration(context.Background(), "", "/music/song.flac")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if got != 2500*time.Millisecond {
		t.Fatalf("duration = %v", got)
	}
}

func TestDurationMissing(t *testing.T) {
	setHelperCommand(t, "noduration")
	if _, err := Duration(context.Background(), "", "/music/song.flac"); err == nil {
		t.Fatal("expected error when duration is missing")
	}
}

func TestInspectFailure(t *testing.T) {
	setHelperCommand(t, "fail")
	if _, err := Inspect(context.Background(), "ffprobe", "/music/broken.flac"); err == nil {
		t.Fatal("expected error for failing ffprobe")
	}
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "success":
		fmt.Fprint(os.Stdout, `{"streams":[{"index":0,"codec_type":"audio","codec_name":"flac"}],"format":{"duration":"2.500000"}}`)
	case "noduration":
		fmt.Fprint(os.Stdout, `{"streams":[],"format":{}}`)
	default:
		fmt.Fprint(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	}
	os.Exit(0)
}
