package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/services"
)

var commandContext = exec.CommandContext

const stderrTailLimit = 4 * 1024

// Option configures the ffmpeg backend.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithProbeBinary overrides the ffprobe executable.
func WithProbeBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.probeBinary = binary
		}
	}
}

// WithWorkDir sets where staged inputs and outputs are written.
func WithWorkDir(dir string) Option {
	return func(f *FFmpeg) {
		if dir != "" {
			f.workDir = dir
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) {
		f.logger = logging.NewComponentLogger(logger, "ffmpeg")
	}
}

// FFmpeg converts audio by running the ffmpeg command-line tool.
type FFmpeg struct {
	binary      string
	probeBinary string
	workDir     string
	logger      *slog.Logger
	probe       func(ctx context.Context, binary, path string) (time.Duration, error)

	initMu      sync.Mutex
	initialized bool
	encoders    map[string]bool

	busy sync.Mutex
}

// NewFFmpeg constructs an uninitialised backend.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary:      "ffmpeg",
		probeBinary: "ffprobe",
		workDir:     filepath.Join(os.TempDir(), "cadence"),
		logger:      logging.NewNop(),
		probe:       ffprobe.Duration,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFFmpegFromConfig builds a backend from the conversion settings.
func NewFFmpegFromConfig(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return NewFFmpeg(
		WithBinary(cfg.Conversion.FFmpegBinary),
		WithProbeBinary(cfg.Conversion.FFprobeBinary),
		WithWorkDir(cfg.Conversion.WorkDir),
		WithLogger(logger),
	)
}

// Initialize verifies that ffmpeg runs and provides every required encoder.
func (f *FFmpeg) Initialize(ctx context.Context) error {
	f.initMu.Lock()
	defer f.initMu.Unlock()
	if f.initialized {
		return nil
	}

	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return &BackendInitError{Err: services.Wrap(services.ErrConfiguration, "transcode", "initialize", "create work dir", err)}
	}

	cmd := commandContext(ctx, f.binary, "-hide_banner", "-encoders") //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return &BackendInitError{Err: services.Wrap(services.ErrExternalTool, "transcode", "initialize", "run "+f.binary, err)}
	}
	encoders := parseEncoders(output)
	var missing []string
	for _, format := range Formats {
		if !encoders[format.Encoder()] {
			missing = append(missing, format.Encoder())
		}
	}
	if len(missing) > 0 {
		return &BackendInitError{Err: services.Wrap(services.ErrExternalTool, "transcode", "initialize",
			"ffmpeg lacks encoders: "+strings.Join(missing, ", "), nil)}
	}

	f.encoders = encoders
	f.initialized = true
	f.logger.Info("ffmpeg ready",
		logging.String("binary", f.binary),
		logging.String(logging.FieldEventType, "backend_initialized"),
	)
	return nil
}

// parseEncoders extracts encoder names from `ffmpeg -encoders` output, whose
// entries look like " A....D aac   AAC (Advanced Audio Coding)".
func parseEncoders(output []byte) map[string]bool {
	encoders := make(map[string]bool)
	listing := false
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			listing = true
			continue
		}
		if !listing {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

// Convert transcodes src and returns the encoded bytes.
func (f *FFmpeg) Convert(ctx context.Context, src Source, opts Options, onProgress func(float64)) (Result, error) {
	name := ""
	if src != nil {
		name = src.Name()
	}
	fail := func(marker error, operation, message string, err error) (Result, error) {
		return Result{}, &ConversionError{Source: name, Err: services.Wrap(marker, "transcode", operation, message, err)}
	}

	if src == nil {
		return fail(services.ErrValidation, "convert", "no source", nil)
	}
	if !opts.Format.Valid() {
		return fail(services.ErrValidation, "convert", fmt.Sprintf("unsupported format %q", opts.Format), nil)
	}
	if !f.busy.TryLock() {
		return fail(services.ErrValidation, "convert", "backend busy", nil)
	}
	defer f.busy.Unlock()

	if err := f.Initialize(ctx); err != nil {
		return Result{}, err
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	inputPath, cleanupInput, err := f.stageInput(src)
	if err != nil {
		return fail(services.ErrNotFound, "stage input", "", err)
	}
	defer cleanupInput()

	outputPath := filepath.Join(f.workDir, uuid.NewString()+"."+opts.Format.Extension())
	defer os.Remove(outputPath)

	duration, err := f.probe(ctx, f.probeBinary, inputPath)
	if err != nil {
		f.logger.Debug("duration probe failed; progress limited to start and end",
			logging.String("source", name),
			logging.Error(err),
		)
		duration = 0
	}

	onProgress(0)
	cmd := commandContext(ctx, f.binary, buildArgs(inputPath, outputPath, opts)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail(services.ErrExternalTool, "convert", "stdout pipe", err)
	}
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fail(services.ErrExternalTool, "convert", "start ffmpeg", err)
	}

	readErr := readProgress(stdout, duration, onProgress)
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(services.ErrTimeout, "convert", "cancelled", ctxErr)
		}
		detail := strings.TrimSpace(stderr.String())
		if idx := strings.LastIndex(detail, "\n"); idx >= 0 {
			detail = strings.TrimSpace(detail[idx+1:])
		}
		return fail(services.ErrExternalTool, "convert", detail, err)
	}
	if readErr != nil {
		return fail(services.ErrExternalTool, "convert", "read progress", readErr)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fail(services.ErrExternalTool, "convert", "read output", err)
	}
	if len(data) == 0 {
		return fail(services.ErrExternalTool, "convert", "ffmpeg produced an empty file", nil)
	}
	onProgress(100)
	return Result{Data: data, Extension: opts.Format.Extension()}, nil
}

func (f *FFmpeg) stageInput(src Source) (string, func(), error) {
	if local, ok := src.(LocalSource); ok && local.LocalPath() != "" {
		path := local.LocalPath()
		if _, err := os.Stat(path); err != nil {
			return "", func() {}, err
		}
		return path, func() {}, nil
	}

	reader, err := src.Open()
	if err != nil {
		return "", func() {}, err
	}
	defer reader.Close()

	staged := filepath.Join(f.workDir, uuid.NewString()+filepath.Ext(src.Name()))
	file, err := os.Create(staged)
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.Remove(staged) }
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return staged, cleanup, nil
}

func buildArgs(input, output string, opts Options) []string {
	args := []string{"-hide_banner", "-nostdin", "-i", input, "-map_metadata", "0", "-map", "0:a"}
	if opts.Format.keepsCoverArt() {
		args = append(args, "-map", "0:v?", "-c:v", "copy", "-disposition:v", "attached_pic")
	} else {
		args = append(args, "-vn")
	}
	args = append(args,
		"-c:a", opts.Format.Encoder(),
		"-b:a", opts.EffectiveBitrate(),
		"-progress", "pipe:1",
		"-nostats",
		"-y", output,
	)
	return args
}

// readProgress consumes ffmpeg's key=value progress stream.
func readProgress(r io.Reader, duration time.Duration, onProgress func(float64)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if duration <= 0 {
				continue
			}
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			percent := float64(us) / float64(duration.Microseconds()) * 100
			if percent > 100 {
				percent = 100
			}
			onProgress(percent)
		case "progress":
			if value == "end" {
				onProgress(100)
			}
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append([]byte(nil), b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

var _ Backend = (*FFmpeg)(nil)
