package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"cadence/internal/services"
)

func setHelperCommand(t *testing.T, mode string) *[][]string {
	t.Helper()
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &calls
}

func newTestBackend(t *testing.T) *FFmpeg {
	t.Helper()
	f := NewFFmpeg(WithWorkDir(filepath.Join(t.TempDir(), "work")))
	f.probe = func(context.Context, string, string) (time.Duration, error) {
		return 10 * time.Second, nil
	}
	return f
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Track 01.flac")
	if err := os.WriteFile(path, []byte("fLaC"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestInitializeIsIdempotent(t *testing.T) {
	calls := setHelperCommand(t, "success")
	f := newTestBackend(t)
	for i := 0; i < 3; i++ {
		if err := f.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize #%d: %v", i, err)
		}
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one encoder probe, got %d", len(*calls))
	}
}

func TestInitializeMissingEncoderRetries(t *testing.T) {
	calls := setHelperCommand(t, "noopus")
	f := newTestBackend(t)
	err := f.Initialize(context.Background())
	var initErr *BackendInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected BackendInitError, got %v", err)
	}
	if !strings.Contains(err.Error(), "libopus") {
		t.Fatalf("expected missing encoder in message: %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker: %v", err)
	}
	if err := f.Initialize(context.Background()); err == nil {
		t.Fatal("expected second attempt to fail again")
	}
	if len(*calls) != 2 {
		t.Fatalf("failed init should retry; got %d probes", len(*calls))
	}
}

func TestConvertReportsProgressAndOutput(t *testing.T) {
	calls := setHelperCommand(t, "success")
	f := newTestBackend(t)
	input := writeInput(t)

	var progress []float64
	result, err := f.Convert(context.Background(), NewFileSource(input), Options{Format: FormatMP3}, func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if string(result.Data) != "encoded-audio" {
		t.Fatalf("unexpected data %q", result.Data)
	}
	if result.Extension != "mp3" {
		t.Fatalf("extension = %q", result.Extension)
	}
	if len(progress) < 3 || progress[0] != 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("unexpected progress sequence %v", progress)
	}
	if !slices.Contains(progress, 50) {
		t.Fatalf("expected 50%% from out_time_us, got %v", progress)
	}

	args := (*calls)[len(*calls)-1]
	for _, want := range []string{"libmp3lame", "128k", "pipe:1", input} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in args %v", want, args)
		}
	}
	entries, _ := os.ReadDir(f.workDir)
	if len(entries) != 0 {
		t.Fatalf("expected work dir cleaned, found %d entries", len(entries))
	}
}

func TestConvertStagesNonLocalSource(t *testing.T) {
	calls := setHelperCommand(t, "success")
	f := newTestBackend(t)

	src := BytesSource{Filename: "upload.wav", Data: []byte("RIFF")}
	if _, err := f.Convert(context.Background(), src, Options{Format: FormatOpus, Bitrate: "96k"}, nil); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	args := (*calls)[len(*calls)-1]
	idx := slices.Index(args, "-i")
	if idx < 0 || !strings.HasPrefix(args[idx+1], f.workDir) || filepath.Ext(args[idx+1]) != ".wav" {
		t.Fatalf("expected staged input in work dir, got %v", args)
	}
	if !slices.Contains(args, "-vn") || !slices.Contains(args, "96k") {
		t.Fatalf("unexpected opus args %v", args)
	}
	entries, _ := os.ReadDir(f.workDir)
	if len(entries) != 0 {
		t.Fatalf("expected staged files removed, found %d", len(entries))
	}
}

func TestConvertFailureIsConversionError(t *testing.T) {
	setHelperCommand(t, "convertfail")
	f := newTestBackend(t)
	_, err := f.Convert(context.Background(), NewFileSource(writeInput(t)), Options{Format: FormatM4A}, nil)
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Source != "Track 01.flac" {
		t.Fatalf("source = %q", convErr.Source)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected stderr tail in error: %v", err)
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	setHelperCommand(t, "success")
	f := newTestBackend(t)
	_, err := f.Convert(context.Background(), NewFileSource(writeInput(t)), Options{Format: "flac"}, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConvertMissingInput(t *testing.T) {
	setHelperCommand(t, "success")
	f := newTestBackend(t)
	_, err := f.Convert(context.Background(), NewFileSource("/nonexistent/a.flac"), Options{Format: FormatM4A}, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReadProgressClampsAndSkipsNoise(t *testing.T) {
	stream := "frame=0\nout_time_us=N/A\nout_time_us=2000000\nout_time_us=9000000\nprogress=end\n"
	var got []float64
	if err := readProgress(strings.NewReader(stream), 4*time.Second, func(p float64) { got = append(got, p) }); err != nil {
		t.Fatalf("readProgress: %v", err)
	}
	want := []float64{50, 100, 100}
	if !slices.Equal(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"M4A": FormatM4A, ".mp3": FormatMP3, " opus ": FormatOpus}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("wav"); err == nil {
		t.Fatal("expected error for wav")
	}
	if (Options{Format: FormatM4A}).EffectiveBitrate() != "256k" {
		t.Fatal("unexpected m4a default bitrate")
	}
}

const encoderListing = `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)
`

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	mode := os.Getenv("FFMPEG_HELPER_MODE")

	if slices.Contains(args, "-encoders") {
		fmt.Print(encoderListing)
		if mode != "noopus" {
			fmt.Println(" A....D libopus              libopus Opus")
		}
		os.Exit(0)
	}

	if mode == "convertfail" {
		fmt.Fprintln(os.Stderr, "Input #0, flac")
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	}

	output := args[len(args)-1]
	fmt.Println("out_time_us=0")
	fmt.Println("progress=continue")
	fmt.Println("out_time_us=5000000")
	fmt.Println("progress=continue")
	if err := os.WriteFile(output, []byte("encoded-audio"), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("out_time_us=10000000")
	fmt.Println("progress=end")
	os.Exit(0)
}
