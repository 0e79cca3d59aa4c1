package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// consoleHandler renders one line per record:
//
//	2026-01-02T15:04:05Z INFO queue [job 1b2c3d4e transcode]: job progress 40% file=song.flac
//
// The component, job id and stage form the prefix, and progress_percent is
// folded into the message instead of being listed as a key.
type consoleHandler struct {
	out       *consoleOutput
	level     slog.Leveler
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

type consoleOutput struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[slog.Level]*color.Color
}

func newConsoleHandler(w io.Writer, lvl slog.Leveler, addSource, colorize bool) slog.Handler {
	out := &consoleOutput{w: w}
	if colorize {
		out.colors = map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgHiBlack),
			slog.LevelInfo:  color.New(color.FgCyan),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		}
		for _, c := range out.colors {
			c.EnableColor()
		}
	}
	return &consoleHandler{out: out, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	appendAttrs(&fields, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&fields, h.groups, attr)
		return true
	})
	prefix, fields := splitPrefix(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.Grow(128 + len(fields)*24)
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(h.out.levelLabel(record.Level))
	b.WriteByte(' ')
	prefix.writeTo(&b)

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if prefix.progress != "" {
		b.WriteByte(' ')
		b.WriteString(prefix.progress)
	}

	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}

	for _, f := range fields {
		if f.key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	b.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (o *consoleOutput) levelLabel(level slog.Level) string {
	var key slog.Level
	var label string
	switch {
	case level >= slog.LevelError:
		key, label = slog.LevelError, "ERROR"
	case level >= slog.LevelWarn:
		key, label = slog.LevelWarn, "WARN"
	case level >= slog.LevelInfo:
		key, label = slog.LevelInfo, "INFO"
	default:
		key, label = slog.LevelDebug, "DEBUG"
	}
	if c, ok := o.colors[key]; ok {
		return c.Sprint(label)
	}
	return label
}

// linePrefix holds the attributes rendered ahead of the message.
type linePrefix struct {
	component string
	jobID     string
	stage     string
	progress  string
}

// splitPrefix pulls component, job, stage and progress out of fields. The
// first occurrence of each wins. Without a component the job id stays a
// regular field.
func splitPrefix(fields []field) (linePrefix, []field) {
	var p linePrefix
	rest := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			if p.component == "" {
				p.component = valueString(f.value)
			}
			continue
		case FieldJobID:
			if p.jobID == "" {
				p.jobID = valueString(f.value)
			}
			continue
		case FieldStage:
			if p.stage == "" {
				p.stage = valueString(f.value)
			}
			continue
		case FieldProgressPercent:
			if p.progress == "" {
				p.progress = percentString(f.value)
			}
			continue
		}
		rest = append(rest, f)
	}
	if p.component == "" {
		if p.jobID != "" {
			rest = append(rest, field{key: FieldJobID, value: slog.StringValue(p.jobID)})
		}
		if p.stage != "" {
			rest = append(rest, field{key: FieldStage, value: slog.StringValue(p.stage)})
		}
	}
	return p, rest
}

func (p linePrefix) writeTo(b *strings.Builder) {
	if p.component == "" {
		return
	}
	b.WriteString(p.component)
	if p.jobID != "" {
		b.WriteString(" [job ")
		b.WriteString(shortID(p.jobID))
		if p.stage != "" {
			b.WriteByte(' ')
			b.WriteString(p.stage)
		}
		b.WriteByte(']')
	}
	b.WriteString(": ")
}

type field struct {
	key   string
	value slog.Value
}

func appendAttrs(dst *[]field, groups []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		appendAttr(dst, groups, attr)
	}
}

func appendAttr(dst *[]field, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		appendAttrs(dst, inner, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	*dst = append(*dst, field{key: key, value: attr.Value})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func valueString(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return formatValue(v)
}

func percentString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.Itoa(int(math.Round(v.Float64()))) + "%"
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10) + "%"
	default:
		return valueString(v) + "%"
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
