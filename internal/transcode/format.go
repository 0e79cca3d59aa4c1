package transcode

import (
	"fmt"
	"strings"
)

// Format is a target audio container.
type Format string

const (
	FormatM4A  Format = "m4a"
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
)

// Formats lists the supported targets, primary first.
var Formats = []Format{FormatM4A, FormatMP3, FormatOpus}

// ParseFormat accepts a format name case-insensitively, with or without a
// leading dot.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "."))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported format %q (want m4a, mp3 or opus)", value)
	}
	return f, nil
}

// Valid reports whether f is a supported target.
func (f Format) Valid() bool {
	switch f {
	case FormatM4A, FormatMP3, FormatOpus:
		return true
	}
	return false
}

// Encoder is the ffmpeg audio encoder producing f.
func (f Format) Encoder() string {
	switch f {
	case FormatM4A:
		return "aac"
	case FormatMP3:
		return "libmp3lame"
	case FormatOpus:
		return "libopus"
	}
	return ""
}

// Extension is the file extension, without a dot, for f.
func (f Format) Extension() string {
	return string(f)
}

// DefaultBitrate is used when Options.Bitrate is empty.
func (f Format) DefaultBitrate() string {
	if f == FormatM4A {
		return "256k"
	}
	return "128k"
}

// keepsCoverArt reports whether the container can carry an attached picture.
func (f Format) keepsCoverArt() bool {
	return f == FormatM4A || f == FormatMP3
}

// Options are the per-job conversion parameters.
type Options struct {
	Format  Format `json:"format"`
	Bitrate string `json:"bitrate"`
}

// EffectiveBitrate returns Bitrate or the format default.
func (o Options) EffectiveBitrate() string {
	if b := strings.TrimSpace(o.Bitrate); b != "" {
		return b
	}
	return o.Format.DefaultBitrate()
}
